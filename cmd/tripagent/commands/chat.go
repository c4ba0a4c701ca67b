package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tripagent/tripagent/internal/event"
	"github.com/tripagent/tripagent/internal/identity"
	"github.com/tripagent/tripagent/internal/store"
	"github.com/tripagent/tripagent/internal/transport"
	"github.com/tripagent/tripagent/internal/turn"
	"github.com/tripagent/tripagent/pkg/types"
)

var (
	chatNoStream bool
	chatMessage  string
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Start a travel-planning conversation",
	Long: `Start an interactive conversation with the travel agent.

Examples:
  tripagent chat
  tripagent chat "Find flights from JFK to CDG"
  tripagent chat --no-stream "Plan 3 days in Paris"`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatNoStream, "no-stream", false, "Use the non-streaming endpoint")
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send a single message and exit")
}

var (
	userColor     = color.New(color.FgCyan, color.Bold)
	agentColor    = color.New(color.FgGreen, color.Bold)
	thinkingColor = color.New(color.FgYellow)
	toolColor     = color.New(color.FgMagenta)
	errColor      = color.New(color.FgRed)
)

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.BaseURL == "" {
		return fmt.Errorf("no base URL configured. Set TRIPAGENT_BASE_URL or baseUrl in tripagent.json")
	}
	if cfg.AccessToken == "" {
		return fmt.Errorf("no access token configured. Set TRIPAGENT_ACCESS_TOKEN")
	}

	client := transport.NewClient(cfg.BaseURL)
	controller := turn.NewController(client, turn.Settings{
		MaxAttempts:    cfg.RetryMaxAttempts(),
		InitialBackoff: cfg.InitialBackoff(),
		Timeout:        cfg.RequestTimeout(),
	})
	st := store.New(controller, event.NewBus())
	st.SetAuth(&identity.AuthContext{AccessToken: cfg.AccessToken, UserID: cfg.UserID})

	unsub := st.Bus().SubscribeAll(renderEvent)
	defer unsub()

	ctx := cmd.Context()

	// One-shot mode.
	message := chatMessage
	if message == "" && len(args) > 0 {
		message = strings.Join(args, " ")
	}
	if message != "" {
		return sendOne(ctx, st, message)
	}

	fmt.Printf("Session %s. Type a message, '/new' for a new session, '/quit' to exit.\n", st.Session().ID)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		userColor.Print("you> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/new":
			session := st.StartNewSession()
			fmt.Printf("New session %s\n", session.ID)
			continue
		}

		if err := sendOne(ctx, st, line); err != nil {
			errColor.Fprintf(os.Stderr, "%v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func sendOne(ctx context.Context, st *store.Store, message string) error {
	if chatNoStream {
		return st.InvokeMessage(ctx, message)
	}
	return st.SendMessage(ctx, message)
}

// renderEvent prints store notifications as they arrive, in order.
func renderEvent(ev event.Event) {
	switch ev.Type {
	case event.ThinkingUpdated:
		if d, ok := ev.Data.(event.ThinkingUpdatedData); ok && d.Message != "" {
			thinkingColor.Printf("  … %s\n", d.Message)
		}
	case event.ToolProgressed:
		if d, ok := ev.Data.(event.ToolProgressedData); ok {
			renderTool(d.Tool)
		}
	case event.MessageAdded:
		if d, ok := ev.Data.(event.MessageAddedData); ok && d.Message.Role == types.RoleAgent {
			renderAgentMessage(d.Message)
		}
	}
}

func renderTool(tp types.ToolProgress) {
	switch tp.Status {
	case types.ToolActive:
		toolColor.Printf("  ▸ %s running\n", tp.Name)
	case types.ToolCompleted:
		if tp.Preview != "" {
			toolColor.Printf("  ✓ %s: %s\n", tp.Name, tp.Preview)
		} else {
			toolColor.Printf("  ✓ %s\n", tp.Name)
		}
	case types.ToolFailed:
		errColor.Printf("  ✗ %s: %s\n", tp.Name, tp.Error)
	}
}

func renderAgentMessage(msg types.Message) {
	if msg.Meta != nil && msg.Meta.IsError {
		errColor.Print("agent> ")
		fmt.Println(msg.Content)
		return
	}

	agentColor.Print("agent> ")
	fmt.Println(msg.Content)

	if msg.Meta == nil || msg.Meta.Result == nil {
		return
	}
	renderResult(msg.Meta.Result)
}

func renderResult(res *types.NormalizedResult) {
	switch res.Kind {
	case types.ResultFlights:
		for _, f := range res.Flights {
			fmt.Printf("  %s %s  %s → %s  %s  %.2f %s\n",
				f.Airline, f.FlightNumber, f.Origin, f.Destination, f.Duration, f.Price, f.Currency)
		}
	case types.ResultAccommodations:
		for _, a := range res.Accommodations {
			fmt.Printf("  %s  %.1f★  %.0f %s/night\n", a.Name, a.Rating, a.PricePerNight, a.Currency)
		}
	case types.ResultRestaurants:
		for _, r := range res.Restaurants {
			fmt.Printf("  %s (%s)  %.1f★  %s\n", r.Name, r.Cuisine, r.Rating, r.PriceRange)
		}
	case types.ResultAttractions:
		for _, a := range res.Attractions {
			fmt.Printf("  %s (%s)  %.1f★\n", a.Name, a.Category, a.Rating)
		}
	case types.ResultItinerary:
		if res.Itinerary == nil {
			return
		}
		fmt.Printf("  %s\n", res.Itinerary.Summary)
		for _, day := range res.Itinerary.Days {
			fmt.Printf("  Day %d: %s\n", day.Day, day.Title)
			for _, act := range day.Activities {
				fmt.Printf("    - %s\n", act)
			}
		}
	}
}
