package commands

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tripagent/tripagent/internal/logging"
	"github.com/tripagent/tripagent/internal/mockcore"
)

var (
	mockPort         int
	mockSSE          bool
	mockDoubleEncode bool
	mockDelayMs      int
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run a local AgentCore stand-in service",
	Long: `Run a local mock of the AgentCore service for development. It speaks
the real wire protocol and answers flight/stay/restaurant/attraction/
itinerary prompts with canned results.

  tripagent mock --port 8787
  TRIPAGENT_BASE_URL=http://localhost:8787 tripagent chat`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}

		handler := mockcore.Handler(mockcore.Options{
			SSEFramed:    mockSSE,
			DoubleEncode: mockDoubleEncode,
			FrameDelay:   time.Duration(mockDelayMs) * time.Millisecond,
		})

		addr := fmt.Sprintf(":%d", mockPort)
		logging.Info().Str("addr", addr).Msg("mock agentcore listening")
		fmt.Printf("Mock AgentCore listening on http://localhost%s\n", addr)
		return http.ListenAndServe(addr, handler)
	},
}

func init() {
	mockCmd.Flags().IntVar(&mockPort, "port", 8787, "Port to listen on")
	mockCmd.Flags().BoolVar(&mockSSE, "sse", false, "Wrap frames in an SSE data: envelope")
	mockCmd.Flags().BoolVar(&mockDoubleEncode, "double-encode", false, "Double-encode frames (upstream quirk)")
	mockCmd.Flags().IntVar(&mockDelayMs, "delay-ms", 150, "Delay between frames")
}
