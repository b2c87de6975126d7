package request

// Accepted as JSON or form
type Claim struct {
	Network  string `json:"network" form:"network" binding:"required"`
	Address  string `json:"address" form:"address" binding:"required"`
	Passcode string `json:"passcode" form:"passcode" binding:"required"`
}

// Address change notification sent by the gateway
type Notification struct {
	Address string `json:"address" form:"address"`
}
