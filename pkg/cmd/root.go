// Package cmd wires the vvs command tree: device-grant login, credential
// management, and the authenticated chat session.
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vvs-dev/vvs/pkg/auth"
	"github.com/vvs-dev/vvs/pkg/config"
)

type Config struct {
	ConfigPath   string
	TokenPath    string
	OutputWriter io.Writer
}

type runtimeState struct {
	configPath string
	tokenPath  string
	cfg        *config.Config
	resolved   *config.Resolved
	logger     *zap.Logger
	writer     io.Writer

	serverOverride   string
	clientIDOverride string
	storageOverride  string
	outputOverride   string
	modelOverride    string
	noBrowser        bool
	nonInteractive   bool
	verbose          bool
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		ConfigPath:   config.DefaultConfigPath(),
		TokenPath:    config.DefaultTokenPath(),
		OutputWriter: os.Stdout,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{
		configPath: cfg.ConfigPath,
		tokenPath:  cfg.TokenPath,
		writer:     cfg.OutputWriter,
	}

	root := &cobra.Command{
		Use:   "vvs",
		Short: "vvs is a CLI-based AI chat tool",
		Long:  "vvs authenticates against the identity provider using the OAuth 2.0 device authorization grant and drives an interactive AI chat session with the stored credential.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetContext(context.WithValue(cmd.Context(), runtimeKey{}, rt))
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if rt.configPath == "" {
				rt.configPath = config.DefaultConfigPath()
			}
			if rt.tokenPath == "" {
				rt.tokenPath = config.DefaultTokenPath()
			}
			if rt.serverOverride == "" {
				rt.serverOverride = os.Getenv("VVS_SERVER_URL")
			}
			if rt.clientIDOverride == "" {
				rt.clientIDOverride = os.Getenv("VVS_CLIENT_ID")
			}
			if rt.storageOverride == "" {
				rt.storageOverride = os.Getenv("VVS_TOKEN_STORAGE")
			}
			if rt.outputOverride == "" {
				rt.outputOverride = os.Getenv("VVS_OUTPUT")
			}
			if rt.modelOverride == "" {
				rt.modelOverride = os.Getenv("VVS_MODEL")
			}
			if !rt.noBrowser {
				rt.noBrowser = strings.EqualFold(os.Getenv("VVS_NO_BROWSER"), "true")
			}
			if !rt.nonInteractive {
				rt.nonInteractive = strings.EqualFold(os.Getenv("VVS_NON_INTERACTIVE"), "true")
			}
			if !rt.verbose {
				rt.verbose = strings.EqualFold(os.Getenv("VVS_VERBOSE"), "true")
			}

			if rt.verbose {
				logger, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				rt.logger = logger
			} else {
				rt.logger = zap.NewNop()
			}

			if cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}

			// The config file is optional; the CLI works from environment
			// and built-in defaults alone.
			fileCfg, err := config.Load(rt.configPath)
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					return err
				}
				fileCfg = nil
			}
			rt.cfg = fileCfg

			resolved, err := config.Resolve(fileCfg, config.Overrides{
				ServerURL:    rt.serverOverride,
				ClientID:     rt.clientIDOverride,
				TokenStorage: rt.storageOverride,
				OutputFormat: rt.outputOverride,
				Model:        rt.modelOverride,
			})
			if err != nil {
				return err
			}
			rt.resolved = resolved
			return nil
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to config file")
	root.PersistentFlags().StringVar(&rt.serverOverride, "server-url", "", "Identity provider server URL")
	root.PersistentFlags().StringVar(&rt.clientIDOverride, "client-id", "", "OAuth client ID")
	root.PersistentFlags().StringVar(&rt.storageOverride, "token-storage", "", "Token storage backend: file or keychain")
	root.PersistentFlags().StringVarP(&rt.outputOverride, "output", "o", "", "Output format: table, json, yaml")
	root.PersistentFlags().StringVar(&rt.modelOverride, "model", "", "Generative model name")
	root.PersistentFlags().BoolVar(&rt.noBrowser, "no-browser", false, "Do not open the verification URL in a browser")
	root.PersistentFlags().BoolVar(&rt.nonInteractive, "non-interactive", false, "Never prompt; treat confirmations as declined")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newLoginCommand(),
		newLogoutCommand(),
		newWhoamiCommand(),
		newChatCommand(),
		NewVersionCommand(),
		NewCompletionCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

func (rt *runtimeState) tokenStore() auth.Store {
	if rt.resolved != nil && rt.resolved.TokenStorage == config.StorageKeychain {
		return &auth.KeyringStore{Service: "vvs"}
	}
	return &auth.FileStore{Path: rt.tokenPath}
}

func (rt *runtimeState) tokenManager() *auth.Manager {
	return &auth.Manager{Store: rt.tokenStore()}
}

// confirm asks a yes/no question on the terminal. Non-interactive runs
// decline instead of hanging on a prompt.
func (rt *runtimeState) confirm(cmd *cobra.Command, prompt string) (bool, error) {
	if rt.nonInteractive {
		return false, nil
	}
	_, _ = fmt.Fprintf(rt.Writer(), "%s [y/N]: ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
