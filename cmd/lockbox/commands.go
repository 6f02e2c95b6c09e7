package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/lockbox/internal/config"
)

func secretPath(key string) string {
	return "/v1/secrets/" + url.PathEscape(key)
}

// --- get ---

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value stored under a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), secretPath(args[0]))
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result["value"])
		return nil
	},
}

// --- set ---

var setCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Store a value under a key",
	Long: `Store a value under a key.

The value is read from stdin when omitted, so secrets can be piped in
without appearing in shell history:

  lockbox set github_token ghp_abc123
  pass show github | lockbox set github_token`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		var value string
		if len(args) == 2 {
			value = args[1]
		} else {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading value from stdin: %w", err)
			}
			value = strings.TrimSuffix(string(data), "\n")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.put(cmd.Context(), secretPath(key), map[string]any{"value": value})
		if err != nil {
			return err
		}
		if err := checkStatus(resp); err != nil {
			return err
		}

		printSuccess("Stored %s", key)
		return nil
	},
}

// --- unset ---

var unsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Delete the value stored under a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), secretPath(args[0]))
		if err != nil {
			return err
		}
		if err := checkStatus(resp); err != nil {
			return err
		}

		printSuccess("Deleted %s", args[0])
		return nil
	},
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored secret keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		showValues, _ := cmd.Flags().GetBool("show-values")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/secrets")
		if err != nil {
			return err
		}

		var all map[string]string
		if err := decodeJSON(resp, &all); err != nil {
			return err
		}

		if len(all) == 0 {
			fmt.Println("No secrets stored.")
			return nil
		}

		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if showValues {
				fmt.Printf("%s\t%s\n", k, all[k])
			} else {
				fmt.Println(k)
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("show-values", false, "print values alongside keys")
}

// --- exists ---

var existsCmd = &cobra.Command{
	Use:   "exists <key>",
	Short: "Check whether a key holds a value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), secretPath(args[0])+"/exists")
		if err != nil {
			return err
		}

		var result map[string]bool
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if !result["exists"] {
			return fmt.Errorf("no secret stored for key %q", args[0])
		}
		fmt.Println("exists")
		return nil
	},
}

// --- watch ---

var watchCmd = &cobra.Command{
	Use:   "watch <key>",
	Short: "Stream change events for a key until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.stream(cmd.Context(), secretPath(args[0])+"/watch")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}

			var event struct {
				Value *string `json:"value"`
			}
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
				printWarning("skipping malformed event: %v", err)
				continue
			}
			if event.Value == nil {
				fmt.Println("(deleted)")
			} else {
				fmt.Println(*event.Value)
			}
		}
		return scanner.Err()
	},
}

// --- purge ---

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every stored secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will delete ALL stored secrets. Use --confirm to proceed.")
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/v1/secrets")
		if err != nil {
			return err
		}
		if err := checkStatus(resp); err != nil {
			return err
		}

		printSuccess("All secrets purged")
		return nil
	},
}

func init() {
	purgeCmd.Flags().Bool("confirm", false, "confirm purging all secrets")
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all secrets as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/secrets")
		if err != nil {
			return err
		}

		var all map[string]string
		if err := decodeJSON(resp, &all); err != nil {
			return err
		}

		data, err := json.MarshalIndent(all, "", "  ")
		if err != nil {
			return err
		}
		data = append(data, '\n')

		if output == "" {
			_, err := os.Stdout.Write(data)
			return err
		}

		// Exported secrets are plaintext; keep the file private.
		if err := os.WriteFile(output, data, 0o600); err != nil {
			return fmt.Errorf("writing export file: %w", err)
		}
		printSuccess("Exported %d secrets to %s", len(all), output)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("output", "", "output file path (default: stdout)")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
