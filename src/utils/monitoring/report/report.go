package report

type Report struct {
	Run        *RunReport        `json:"run,omitempty"`
	Claimer    *ClaimerReport    `json:"claimer,omitempty"`
	Reconciler *ReconcilerReport `json:"reconciler,omitempty"`
	Webhook    *WebhookReport    `json:"webhook,omitempty"`
	Admin      *AdminReport      `json:"admin,omitempty"`
}
