package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"ai_comment_assistant/extractor"
	"ai_comment_assistant/generator"
	"ai_comment_assistant/settings"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft a comment for a post",
	Long: `Draft a comment using the stored provider settings. The post text comes from
--text, or is extracted from an HTML file given with --html ("-" reads stdin).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		style, _ := cmd.Flags().GetString("style")
		tone, _ := cmd.Flags().GetString("tone")
		text, _ := cmd.Flags().GetString("text")
		htmlPath, _ := cmd.Flags().GetString("html")
		trigger, _ := cmd.Flags().GetString("trigger")

		if text == "" && htmlPath != "" {
			var err error
			text, err = extractFromFile(htmlPath, trigger)
			if err != nil {
				return err
			}
			if text == "" {
				pterm.Warning.Println("Could not find post text; generating from an empty post.")
			}
		}
		if text == "" && htmlPath == "" {
			return errors.New("--text or --html is required")
		}

		store, closeStore, err := buildStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		if err := seedSettings(cmd.Context(), cfg, store, logger); err != nil {
			return err
		}
		current, err := settings.Load(cmd.Context(), store)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.RequestTimeout.Std())
			defer cancel()
		}

		spinner, _ := pterm.DefaultSpinner.Start("Generating...")
		res := buildClient(cfg, logger.Named("generator")).Generate(ctx, generator.Request{
			SourceText: text,
			Style:      generator.ParseStyle(style),
			Tone:       generator.ParseTone(tone),
		}, current.Credentials())
		if spinner != nil {
			_ = spinner.Stop()
		}

		if !res.OK() {
			return res.Err
		}
		pterm.Success.Println("Comment generated")
		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract <file.html>",
	Short: "Print the post text found for a comment button",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trigger, _ := cmd.Flags().GetString("trigger")
		text, err := extractFromFile(args[0], trigger)
		if err != nil {
			return err
		}
		if text == "" {
			pterm.Warning.Println("No post text found")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func extractFromFile(path, trigger string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	page, err := extractor.New(logger.Named("extractor")).Analyze(r, trigger, "")
	if err != nil {
		return "", err
	}
	return page.PostText, nil
}

func init() {
	rootCmd.AddCommand(generateCmd, extractCmd)

	styles := []string{string(generator.StyleShort), string(generator.StyleLong), string(generator.StyleEmoji)}
	tones := lo.Map(generator.Tones, func(t generator.Tone, _ int) string { return string(t) })

	generateCmd.Flags().String("style", string(generator.StyleShort), "comment style: "+strings.Join(styles, ", "))
	generateCmd.Flags().String("tone", string(generator.ToneDefault), "tone: "+strings.Join(tones, ", "))
	generateCmd.Flags().String("text", "", "post text")
	generateCmd.Flags().String("html", "", "HTML file to extract the post text from")
	generateCmd.Flags().String("trigger", extractor.TriggerSelector, "CSS selector of the clicked comment button")
	extractCmd.Flags().String("trigger", extractor.TriggerSelector, "CSS selector of the clicked comment button")
}
