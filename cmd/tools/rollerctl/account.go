package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/roller-shop/internal/address"
	"github.com/noah-isme/roller-shop/internal/authclient"
	"github.com/noah-isme/roller-shop/internal/resilience"
)

const passwordEnv = "ROLLER_PASSWORD"

type accountFlags struct {
	api      string
	email    string
	password string
	timeout  time.Duration
}

func newAccountCmd(opts *rootOptions) *cobra.Command {
	f := &accountFlags{}
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Inspect a B2B account through the shop API",
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.api, "api", "http://localhost:8080", "shop API base URL")
	pf.StringVar(&f.email, "email", "", "account email")
	pf.StringVar(&f.password, "password", "", "account password (or $"+passwordEnv+")")
	pf.DurationVar(&f.timeout, "timeout", 0, "per attempt timeout (defaults to $OUTBOUND_TIMEOUT)")
	_ = cmd.MarkPersistentFlagRequired("email")

	addr := address.Input{}
	add := &cobra.Command{
		Use:   "add-address",
		Short: "Create an address on the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := f.login(cmd, opts)
			if err != nil {
				return err
			}
			created, err := client.AddAddress(cmd.Context(), addr)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), created)
		},
	}
	fl := add.Flags()
	fl.StringVar(&addr.AddressType, "type", "shipping", "shipping or billing")
	fl.StringVar(&addr.Street, "street", "", "street and number")
	fl.StringVar(&addr.PostalCode, "postal-code", "", "postal code")
	fl.StringVar(&addr.City, "city", "", "city")
	fl.StringVar(&addr.Country, "country", "DE", "ISO country code")
	fl.BoolVar(&addr.IsDefault, "default", false, "make it the default of its type")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "me",
			Short: "Print the account profile",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				client, err := f.login(cmd, opts)
				if err != nil {
					return err
				}
				profile, err := client.Me(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), profile)
			},
		},
		&cobra.Command{
			Use:   "addresses",
			Short: "List the account's addresses",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				client, err := f.login(cmd, opts)
				if err != nil {
					return err
				}
				list, err := client.ListAddresses(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), list)
			},
		},
		add,
	)
	return cmd
}

func (f *accountFlags) login(cmd *cobra.Command, opts *rootOptions) (*authclient.Client, error) {
	password := f.password
	if password == "" {
		password = os.Getenv(passwordEnv)
	}
	if password == "" {
		return nil, errors.New("password required: pass --password or set " + passwordEnv)
	}
	hc := resilience.NewHTTPClient(opts.outbound("shop-api", f.timeout))
	client := authclient.New(f.api, hc, opts.logger(cmd.ErrOrStderr()))
	if _, err := client.Login(cmd.Context(), f.email, password); err != nil {
		return nil, err
	}
	return client, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
