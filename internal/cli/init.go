package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize accountdesk storage",
		Long: `Record the resolved backend and data directory in config.yaml, then
initialize the backend: the sqlite backend creates its data directory and
accounts.jsonl; the remote backend checks that the server answers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	path := a.settings.dirs.ConfigFile()
	if err := writeConfigValues(path, map[string]string{
		cfgKeyBackend:   a.settings.backend,
		cfgKeyDataDir:   a.settings.dirs.Data,
		cfgKeyRemoteURL: a.settings.remoteURL,
	}); err != nil {
		return sysError(fmt.Errorf("write config: %w", err))
	}

	backend, err := a.openBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	if a.settings.backend == types.BackendRemote {
		if _, err := backend.ListAccounts(context.Background()); err != nil {
			return sysError(fmt.Errorf("reach remote backend: %w", err))
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "accountdesk initialized (%s backend)\n", a.settings.backend)
	return nil
}

// writeConfigValues sets keys in config.yaml, keeping every other key
// already in the file. Empty values remove the key.
func writeConfigValues(path string, values map[string]string) error {
	doc := make(map[string]any)
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	for key, value := range values {
		if value == "" {
			delete(doc, key)
			continue
		}
		doc[key] = value
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}
