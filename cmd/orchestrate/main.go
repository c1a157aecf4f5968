package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"orchestration-agent/internal/dto"
	"orchestration-agent/pkg/correlation"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	baseURL string
	token   string
	timeout time.Duration
)

func main() {
	root := &cobra.Command{
		Use:          "orchestrate",
		Short:        "Drive a running orchestration agent from the terminal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&baseURL, "url", getenv("ORCHESTRATOR_URL", "http://localhost:8000"), "orchestration agent base URL")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("ORCHESTRATOR_TOKEN"), "bearer token when JWT auth is enabled")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "request timeout")

	root.AddCommand(runCMD(), resultCMD(), healthCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCMD() *cobra.Command {
	var docs []string
	var executionID string
	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Run one orchestration over the given documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.OrchestrationRequest{
				DocumentIDs: docs,
				Prompt:      strings.Join(args, " "),
				ExecutionID: executionID,
			}
			color.Cyan("🚀 Orchestrating over %d document(s)", len(docs))

			var res dto.OrchestrationResponse
			status, err := send(http.MethodPost, "/api/v1/agents/orchestrate", req, &res)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("status %d", status)
			}
			printResult(&res)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&docs, "doc", "d", nil, "document id as user_project_doc (repeatable)")
	cmd.Flags().StringVar(&executionID, "execution-id", "", "execution id to correlate downstream calls")
	_ = cmd.MarkFlagRequired("doc")
	return cmd
}

func resultCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "result [execution-id]",
		Short: "Fetch a stored result, or the stage of a running execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var envelope struct {
				Message string          `json:"message"`
				Data    json.RawMessage `json:"data"`
			}
			status, err := send(http.MethodGet, "/api/v1/orchestrations/"+args[0], nil, &envelope)
			if err != nil {
				return err
			}

			switch status {
			case http.StatusOK:
				var res dto.OrchestrationResponse
				if err := json.Unmarshal(envelope.Data, &res); err != nil {
					return err
				}
				printResult(&res)
			case http.StatusAccepted:
				var st dto.ExecutionStatusResponse
				if err := json.Unmarshal(envelope.Data, &st); err != nil {
					return err
				}
				color.Yellow("⏳ %s: %s (%d/%d actions)", st.ExecutionID, st.Stage, st.CompletedActions, st.TotalActions)
			default:
				color.Red("Status %d: %s", status, envelope.Message)
			}
			return nil
		},
	}
}

func healthCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check service readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			var h dto.HealthResponse
			if _, err := send(http.MethodGet, "/health", nil, &h); err != nil {
				return err
			}
			c := color.New(color.FgGreen)
			if !h.LLMConfigured {
				c = color.New(color.FgYellow)
			}
			c.Printf("%s: %s (llm configured: %t, ready: %t)\n", h.Service, h.Status, h.LLMConfigured, h.ServiceReady)
			return nil
		},
	}
}

func send(method, path string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, strings.TrimRight(baseURL, "/")+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if id := resp.Header.Get(correlation.Header); id != "" {
		color.HiBlack("execution id: %s", id)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func printResult(res *dto.OrchestrationResponse) {
	color.Yellow("\nActions")
	for i, o := range res.ActionsTaken {
		mark := color.GreenString("OK")
		if !o.Success {
			mark = color.RedString("FAILED")
		}
		fmt.Printf("  [%d] %-8s %s  %s\n", i+1, o.Action.TypeName(), mark, o.Action.Query)
	}

	color.Yellow("\nAnswer")
	fmt.Println(res.FinalResponse)
	color.Green("\n%s", res.Message)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
