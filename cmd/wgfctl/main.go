package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	wgf "github.com/imrishuroy/go-wgf-sdk"
	"github.com/imrishuroy/go-wgf-sdk/entity"
	"github.com/imrishuroy/go-wgf-sdk/internal/config"
	"github.com/imrishuroy/go-wgf-sdk/validation"
)

const appName = "wgfctl"

// exitViolations is the exit status when input is rejected before any call.
// Every other failure exits 1.
const exitViolations = 2

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	command := NewWgfctlCommand()
	command.SetArgs(args)
	command.SetOut(stdout)
	command.SetErr(stderr)

	err := command.Execute()
	if err == nil {
		return 0
	}
	var verr *validation.ValidationError
	if wgf.IsValidationError(err) && errors.As(err, &verr) {
		_ = printJSON(stderr, map[string]any{"entity": verr.Entity, "violations": verr.Violations})
		return exitViolations
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// GlobalOptions are shared by every subcommand.
type GlobalOptions struct {
	ConfigFile string
	LogLevel   string
	PPEURL     string
}

func NewWgfctlCommand() *cobra.Command {
	o := &GlobalOptions{ConfigFile: os.Getenv("WGF_CONFIG")}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         fmt.Sprintf("%s talks to the WeGetFinancing lending API", appName),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&o.ConfigFile, "config", o.ConfigFile, "path to a TOML config file")
	cmd.PersistentFlags().StringVar(&o.LogLevel, "log-level", o.LogLevel, "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&o.PPEURL, "ppe-url", o.PPEURL, "override the PPE host")

	cmd.AddCommand(NewCmdLoan(o))
	cmd.AddCommand(NewCmdShipping(o))
	cmd.AddCommand(NewCmdPPE(o))
	return cmd
}

// client builds a Client from the merged config; logs go to the command's stderr.
func (o *GlobalOptions) client(cmd *cobra.Command) (*wgf.Client, error) {
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return nil, err
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	opts := []wgf.Option{wgf.WithLogger(cfg.Logger(cmd.ErrOrStderr()))}
	if o.PPEURL != "" {
		opts = append(opts, wgf.WithPPEBaseURL(o.PPEURL))
	}
	return wgf.NewFromMap(cfg.Credentials(), opts...)
}

func readInput(filename string) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if filename == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(filename)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	raw, err := entity.DecodeMap(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return raw, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type FileOptions struct {
	Filename string
}

func (f *FileOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Filename, "filename", "f", "", "JSON input file, - for stdin")
	_ = cmd.MarkFlagRequired("filename")
}

func NewCmdLoan(o *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loan",
		Short: "loan operations",
	}

	f := &FileOptions{}
	request := &cobra.Command{
		Use:                   "request -f FILENAME",
		DisableFlagsInUseLine: true,
		Short:                 "request a new loan",
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(f.Filename)
			if err != nil {
				return err
			}
			c, err := o.client(cmd)
			if err != nil {
				return err
			}
			resp, err := c.RequestNewLoan(cmd.Context(), raw)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Envelope)
		},
	}
	f.bind(request)
	cmd.AddCommand(request)
	return cmd
}

func NewCmdShipping(o *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shipping",
		Short: "shipping status operations",
	}

	f := &FileOptions{}
	update := &cobra.Command{
		Use:                   "update -f FILENAME",
		DisableFlagsInUseLine: true,
		Short:                 "send a shipping status update",
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(f.Filename)
			if err != nil {
				return err
			}
			c, err := o.client(cmd)
			if err != nil {
				return err
			}
			env, err := c.UpdateShippingStatus(cmd.Context(), raw)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), env)
		},
	}
	f.bind(update)
	cmd.AddCommand(update)
	return cmd
}

func NewCmdPPE(o *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ppe",
		Short: "point-of-purchase estimate operations",
	}

	var merchantToken string
	test := &cobra.Command{
		Use:   "test",
		Short: "check that the merchant has PPE lenders configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client(cmd)
			if err != nil {
				return err
			}
			status, err := c.TestPPE(cmd.Context(), merchantToken)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), status)
		},
	}
	test.Flags().StringVar(&merchantToken, "merchant-token", "", "merchant token of the PPE integration")
	_ = test.MarkFlagRequired("merchant-token")
	cmd.AddCommand(test)
	return cmd
}
