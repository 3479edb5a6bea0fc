package main

import (
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"ai_comment_assistant/config"
	"ai_comment_assistant/generator"
	"ai_comment_assistant/settings"
)

// memory 后端只在 serve 进程内有效，CLI 每条命令都会新建一份。
var errMemoryBackend = errors.New(`settings backend "memory" does not persist between commands; ` +
	`set settings_backend to "keyring" or "redis" in the config`)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the provider, API key and model",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings (API key masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := buildStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		cur, err := settings.Load(cmd.Context(), store)
		if err != nil {
			return err
		}
		if cfg.SettingsBackend == config.BackendMemory {
			pterm.Warning.Println(errMemoryBackend.Error())
		}
		key := cur.MaskedKey()
		if key == "" {
			key = "(not set)"
		}
		rows := pterm.TableData{{"Property", "Value"}}
		rows = append(rows, []string{"Backend", cfg.SettingsBackend})
		rows = append(rows, []string{"Provider", cur.Provider.DisplayName()})
		rows = append(rows, []string{"API key", key})
		rows = append(rows, []string{"Model", cur.Model})
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save provider, API key and model",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.SettingsBackend == config.BackendMemory {
			return errMemoryBackend
		}
		store, closeStore, err := buildStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		cur, err := settings.Load(cmd.Context(), store)
		if err != nil {
			return err
		}
		next := cur
		if cmd.Flags().Changed("provider") {
			p, _ := cmd.Flags().GetString("provider")
			next.Provider = generator.ParseProvider(p)
			// 切换服务商且未指定模型时，使用新服务商的默认模型
			if next.Provider != cur.Provider && !cmd.Flags().Changed("model") {
				next.Model = generator.DefaultModel(next.Provider)
			}
		}
		if cmd.Flags().Changed("api-key") {
			next.APIKey, _ = cmd.Flags().GetString("api-key")
		}
		if cmd.Flags().Changed("model") {
			next.Model, _ = cmd.Flags().GetString("model")
		}
		if err := settings.Save(cmd.Context(), store, next); err != nil {
			return err
		}
		pterm.Success.Println("Settings saved successfully!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	settingsSetCmd.Flags().String("provider", "", "openai or gemini")
	settingsSetCmd.Flags().String("api-key", "", "provider API key")
	settingsSetCmd.Flags().String("model", "", "model name")
}
