package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/bchfaucet/faucet/src/utils/config"
	"github.com/bchfaucet/faucet/src/utils/logger"

	"github.com/sirupsen/logrus"
)

const (
	FunctionCompile = "compileFaucetContract"
	FunctionClaim   = "faucetClaim"
	FunctionSweep   = "faucetSweep"
)

// Runs one script function: JSON argument on stdin, JSON result on stdout
type RunFunc func(ctx context.Context, function string, input []byte) ([]byte, error)

// Script runs the CashScript faucet functions in a Node.js subprocess
type Script struct {
	config *config.Compiler
	log    *logrus.Entry
	run    RunFunc
}

func NewScript(config *config.Compiler) (self *Script) {
	self = new(Script)
	self.config = config
	self.log = logger.NewSublogger("compiler")
	self.run = self.exec
	return
}

func (self *Script) WithRunFunc(run RunFunc) *Script {
	self.run = run
	return self
}

type contractOpts struct {
	Params struct {
		Passcode     string `json:"passcode"`
		PayoutSats   uint64 `json:"payoutSats"`
		OwnerAddress string `json:"ownerAddress"`
	} `json:"params"`
	Options struct {
		Network string `json:"network"`
	} `json:"options"`
}

func optsOf(params ContractParams) (out contractOpts) {
	out.Params.Passcode = params.Passcode
	out.Params.PayoutSats = params.PayoutSatoshis
	out.Params.OwnerAddress = params.OwnerAddress
	out.Options.Network = params.Network.String()
	return
}

type transactionResult struct {
	Success     bool   `json:"success"`
	Transaction string `json:"transaction"`
	Error       string `json:"error"`
}

func (self *Script) exec(ctx context.Context, function string, input []byte) (out []byte, err error) {
	ctx, cancel := context.WithTimeout(ctx, self.config.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, self.config.NodePath, self.config.ScriptPath, function)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			// Script threw, report its last words
			err = fmt.Errorf("%w: %s", ErrScriptFailed, lastLine(stderr.String()))
			return
		}
		err = fmt.Errorf("%w: %s", ErrRunnerFailed, err)
		return
	}

	return stdout.Bytes(), nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func (self *Script) call(ctx context.Context, function string, arg, result interface{}) (err error) {
	input, err := json.Marshal(arg)
	if err != nil {
		return
	}

	start := time.Now()
	output, err := self.run(ctx, function, input)
	self.log.WithField("function", function).
		WithField("duration", time.Since(start)).
		WithError(err).
		Debug("Script called")
	if err != nil {
		return
	}

	// Scripts may print diagnostics, the result is the last line
	err = json.Unmarshal([]byte(lastLine(string(output))), result)
	if err != nil {
		err = fmt.Errorf("%w: bad output: %s", ErrRunnerFailed, err)
	}
	return
}

func (self *Script) Compile(ctx context.Context, params ContractParams) (out *Contract, err error) {
	out = new(Contract)
	err = self.call(ctx, FunctionCompile, optsOf(params), out)
	if err != nil {
		return nil, err
	}
	if out.Address == "" {
		return nil, fmt.Errorf("%w: no address compiled", ErrRunnerFailed)
	}
	return
}

func (self *Script) Claim(ctx context.Context, params ClaimParams) (out *Transaction, err error) {
	arg := struct {
		ContractOpts contractOpts `json:"contractOpts"`
		Utxo         Utxo         `json:"utxo"`
		Recipient    string       `json:"recipient"`
		Passcode     string       `json:"passcode"`
	}{
		ContractOpts: optsOf(params.Contract),
		Utxo:         params.Utxo,
		Recipient:    params.Recipient,
		Passcode:     params.Passcode,
	}
	return self.transaction(ctx, FunctionClaim, arg, "failed to create transaction")
}

func (self *Script) Sweep(ctx context.Context, params SweepParams) (out *Transaction, err error) {
	err = CheckSigningKey(params.SigningKey)
	if err != nil {
		return
	}

	recipient := params.Recipient
	if recipient == "" {
		recipient = params.Contract.OwnerAddress
	}

	arg := struct {
		ContractOpts contractOpts `json:"contractOpts"`
		Utxos        []Utxo       `json:"utxos"`
		Recipient    string       `json:"recipient"`
		Wif          string       `json:"wif"`
	}{
		ContractOpts: optsOf(params.Contract),
		Utxos:        params.Utxos,
		Recipient:    recipient,
		Wif:          params.SigningKey,
	}
	return self.transaction(ctx, FunctionSweep, arg, "failed to create sweep transaction")
}

// Message is used when the script refuses without saying why
func (self *Script) transaction(ctx context.Context, function string, arg interface{}, message string) (out *Transaction, err error) {
	var result transactionResult
	err = self.call(ctx, function, arg, &result)
	if err != nil {
		return
	}

	if !result.Success {
		if result.Error != "" {
			message = result.Error
		}
		err = fmt.Errorf("%w: %s", ErrScriptFailed, message)
		return
	}

	txid, err := TxId(result.Transaction)
	if err != nil {
		return
	}

	return &Transaction{Hex: result.Transaction, Txid: txid}, nil
}
