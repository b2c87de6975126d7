package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/bchfaucet/faucet/src/faucet"
	"github.com/bchfaucet/faucet/src/utils/compiler"
	"github.com/bchfaucet/faucet/src/utils/model"
	monitor_faucet "github.com/bchfaucet/faucet/src/utils/monitoring/faucet"
	"github.com/bchfaucet/faucet/src/utils/watchtower"

	"github.com/spf13/cobra"
)

var (
	faucetNetwork    string
	faucetPasscode   string
	faucetPayout     uint64
	faucetOwner      string
	faucetMaxClaims  uint
	faucetSigningKey string
	faucetRecipient  string
)

func init() {
	faucetCreateCmd.Flags().StringVar(&faucetNetwork, "network", string(model.NetworkMainnet), "mainnet or chipnet")
	faucetCreateCmd.Flags().StringVar(&faucetPasscode, "passcode", "", "passcode compiled into the contract")
	faucetCreateCmd.Flags().Uint64Var(&faucetPayout, "payout", 0, "payout per claim in satoshis")
	faucetCreateCmd.Flags().StringVar(&faucetOwner, "owner", "", "owner address, can sweep the contract")
	faucetCreateCmd.Flags().UintVar(&faucetMaxClaims, "max-claims", 0, "max number of claims, unbounded if not set")
	_ = faucetCreateCmd.MarkFlagRequired("passcode")
	_ = faucetCreateCmd.MarkFlagRequired("payout")
	_ = faucetCreateCmd.MarkFlagRequired("owner")

	faucetListCmd.Flags().StringVar(&faucetNetwork, "network", "", "list only faucets on this network")

	faucetSweepCmd.Flags().StringVar(&faucetSigningKey, "key", "", "owner's private key in WIF")
	faucetSweepCmd.Flags().StringVar(&faucetRecipient, "recipient", "", "recipient address, owner if not set")
	_ = faucetSweepCmd.MarkFlagRequired("key")

	faucetCmd.AddCommand(faucetCreateCmd, faucetListCmd, faucetSweepCmd, faucetSubscribeCmd, faucetReconcileCmd)
	RootCmd.AddCommand(faucetCmd)
}

// Faucet components without background tasks
func withService(f func(ctx context.Context, service *faucet.Service) (interface{}, error)) (err error) {
	db, err := model.NewConnection(applicationCtx, conf, "faucet-cli")
	if err != nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	defer sqlDB.Close()

	service := faucet.NewService(conf, db,
		watchtower.NewClient(&conf.Watchtower),
		compiler.NewScript(&conf.Compiler),
		monitor_faucet.NewMonitor())

	out, err := f(applicationCtx, service)
	if err != nil {
		return
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func parseIds(args []string) (out []uint, err error) {
	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad faucet id %q: %w", arg, err)
		}
		out = append(out, uint(id))
	}
	return
}

func finish(cmd *cobra.Command, args []string) error {
	applicationCtxCancel()
	return nil
}

var faucetCmd = &cobra.Command{
	Use:   "faucet",
	Short: "Manage faucet contracts",
}

var faucetCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Compile, store and subscribe a new faucet contract",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := faucet.CreateFaucetParams{
			Network:        model.Network(faucetNetwork),
			Passcode:       faucetPasscode,
			PayoutSatoshis: faucetPayout,
			OwnerAddress:   faucetOwner,
		}
		if cmd.Flags().Changed("max-claims") {
			params.MaxClaimCount = &faucetMaxClaims
		}

		return withService(func(ctx context.Context, service *faucet.Service) (interface{}, error) {
			return service.Admin.CreateFaucet(ctx, params)
		})
	},
	PostRunE: finish,
}

var faucetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List faucet contracts",
	RunE: func(cmd *cobra.Command, args []string) error {
		var network *model.Network
		if faucetNetwork != "" {
			parsed, err := model.ParseNetwork(faucetNetwork)
			if err != nil {
				return err
			}
			network = &parsed
		}

		return withService(func(ctx context.Context, service *faucet.Service) (interface{}, error) {
			return service.Admin.ListFaucets(ctx, network)
		})
	},
	PostRunE: finish,
}

var faucetSweepCmd = &cobra.Command{
	Use:   "sweep <id>",
	Short: "Send all funds of the faucet to the owner or the recipient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIds(args)
		if err != nil {
			return err
		}

		return withService(func(ctx context.Context, service *faucet.Service) (interface{}, error) {
			return service.Admin.Sweep(ctx, faucet.SweepRequest{
				ContractId: ids[0],
				SigningKey: faucetSigningKey,
				Recipient:  faucetRecipient,
			})
		})
	},
	PostRunE: finish,
}

var faucetSubscribeCmd = &cobra.Command{
	Use:   "subscribe [id...]",
	Short: "Subscribe faucets for gateway notifications, all not yet subscribed if no id given",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIds(args)
		if err != nil {
			return err
		}

		return withService(func(ctx context.Context, service *faucet.Service) (interface{}, error) {
			return service.Admin.SubscribeAll(ctx, ids)
		})
	},
	PostRunE: finish,
}

var faucetReconcileCmd = &cobra.Command{
	Use:   "reconcile [id...]",
	Short: "Refresh cached balances, all faucets if no id given",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIds(args)
		if err != nil {
			return err
		}

		return withService(func(ctx context.Context, service *faucet.Service) (interface{}, error) {
			return service.Admin.ReconcileAll(ctx, ids)
		})
	},
	PostRunE: finish,
}
