// Package tips produces the weekly health tip messages sent to registered
// users. A static bilingual table keyed by pregnancy stage is always
// available; an optional OpenAI-backed generator can rephrase the tip of the
// week, falling back to the table on any failure.
package tips

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// chatService defines the minimal interface for chat completions.
type chatService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Service renders weekly tips.
type Service struct {
	chat chatService // nil disables generation; static tips only
}

// NewService creates a tip service that serves the static table.
func NewService() *Service {
	return &Service{}
}

// NewServiceWithOpenAI creates a tip service that asks OpenAI to phrase the
// week's tip, with the static table as fallback.
func NewServiceWithOpenAI(apiKey string) (*Service, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Service{chat: &client.Chat.Completions}, nil
}

const systemPrompt = "You write one short SMS health tip for a pregnant woman in Kano, Nigeria. " +
	"Write the tip in Hausa first, then English, under 300 characters total. " +
	"Be warm and practical. Never give medication dosages or diagnoses."

// WeeklyTip returns the tip message for a user at the given pregnancy week.
// It never fails: generation errors degrade to the static table entry.
func (s *Service) WeeklyTip(ctx context.Context, name string, week int) string {
	tip := StaticTip(week)
	if s.chat != nil {
		generated, err := s.generate(ctx, week)
		if err != nil {
			slog.Warn("Tip generation failed, using static tip", "error", err, "week", week)
		} else if generated != "" {
			tip = generated
		}
	}
	return fmt.Sprintf("Sannu %s! Mako %d:\n%s\n\nDon gaggawa: *347*911#", name, week, tip)
}

func (s *Service) generate(ctx context.Context, week int) (string, error) {
	userPrompt := fmt.Sprintf("The woman is in pregnancy week %d. Base guidance: %s", week, StaticTip(week))
	resp, err := s.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4oMini,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// StaticTip returns the table entry for a pregnancy week. Weeks outside 1-40
// clamp to the nearest stage.
func StaticTip(week int) string {
	switch {
	case week <= 12:
		return "Fara shan folic acid kowace rana kuma ka fara zuwa asibiti don duban ciki.\n" +
			"Take folic acid daily and book your first antenatal visit."
	case week <= 20:
		return "Ci abinci mai gina jiki: wake, kifi, ganye. Sha ruwa mai yawa.\n" +
			"Eat protein-rich food (beans, fish, greens) and drink plenty of water."
	case week <= 28:
		return "Lokacin rigakafi ne: tabbatar ka karɓi Tetanus Toxoid a asibiti.\n" +
			"Time for vaccinations: make sure you receive your Tetanus Toxoid dose."
	case week <= 36:
		return "Ka lura da alamomin haɗari: zubar jini, ciwon kai mai ƙarfi, ƙafafu sun kumbura.\n" +
			"Watch for danger signs: bleeding, severe headache, swollen feet. Visit a clinic if any appear."
	default:
		return "Haihuwa na gabatowa: shirya kayan asibiti kuma ka san hanyar zuwa asibiti mafi kusa.\n" +
			"Delivery is near: pack your hospital bag and know the route to your nearest facility."
	}
}
