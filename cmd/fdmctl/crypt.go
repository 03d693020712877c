package main

import (
	"fmt"
	"os"

	"github.com/san-kum/fdmctl/internal/crypt"
	"github.com/spf13/cobra"
)

var (
	keyHex    string
	outPath   string
	companion bool
)

func resolveKey() ([]byte, error) {
	if keyHex != "" {
		return crypt.ParseKey(keyHex)
	}
	return crypt.KeyFromEnv()
}

func newEncryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt [file]",
		Short: "encrypt a config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveKey()
			if err != nil {
				return err
			}
			plain, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			data, err := crypt.Encrypt(key, plain)
			if err != nil {
				return err
			}

			out := outPath
			switch {
			case out != "":
			case companion:
				out = args[0] + crypt.CompanionExt
			default:
				out = crypt.DefaultOutputPath(args[0])
			}
			if err := os.WriteFile(out, data, 0600); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&keyHex, "key", "", "hex AES-256 key (default $"+crypt.KeyEnv+")")
	f.StringVarP(&outPath, "output", "o", "", "output path")
	f.BoolVar(&companion, "companion", false, "write next to the input as <file>"+crypt.CompanionExt)
	return cmd
}

func newDecryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt [file]",
		Short: "decrypt an encrypted config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveKey()
			if err != nil {
				return err
			}
			plain, err := crypt.ReadEncryptedFile(key, args[0])
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = os.Stdout.Write(plain)
				return err
			}
			if err := os.WriteFile(outPath, plain, 0600); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", outPath)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&keyHex, "key", "", "hex AES-256 key (default $"+crypt.KeyEnv+")")
	f.StringVarP(&outPath, "output", "o", "", "output path (default stdout)")
	return cmd
}
