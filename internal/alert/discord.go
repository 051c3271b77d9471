package alert

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"

	"github.com/priceops/dealwatch/internal/model"
)

// DiscordNotifier posts deal embeds to a Discord channel via webhook.
type DiscordNotifier struct {
	client webhook.Client
}

// NewDiscordNotifier creates a notifier from a webhook URL.
func NewDiscordNotifier(webhookURL string) (*DiscordNotifier, error) {
	client, err := webhook.NewWithURL(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid discord webhook url: %w", err)
	}
	return &DiscordNotifier{client: client}, nil
}

func (n *DiscordNotifier) Notify(ctx context.Context, item model.Item, candidate model.DealCandidate) error {
	embed := buildDealEmbed(item, candidate)

	_, err := n.client.CreateMessage(discord.WebhookMessageCreate{
		Embeds: []discord.Embed{embed},
	}, rest.WithCtx(ctx))
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}

// Close releases the underlying rest client.
func (n *DiscordNotifier) Close(ctx context.Context) {
	n.client.Close(ctx)
}

func buildDealEmbed(item model.Item, c model.DealCandidate) discord.Embed {
	name := item.Title
	if name == "" {
		name = item.Label
	}
	if name == "" {
		name = item.ID
	}

	builder := discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("%s: %s", dealHeadline(c.Type), name)).
		SetColor(dealColor(c.Type)).
		SetTimestamp(c.DetectedAt).
		AddField("Price", fmt.Sprintf("$%.2f", c.CurrentPrice), true)

	switch c.Type {
	case model.DealMarginOpportunity:
		builder.AddField("Buy At", fmt.Sprintf("$%.2f", c.ReferencePrice), true).
			AddField("Est. Profit", fmt.Sprintf("$%.2f", c.EstimatedProfit), true).
			AddField("ROI", fmt.Sprintf("%.1f%%", c.EstimatedROI), true)
	case model.DealBelowAverage:
		builder.AddField(fmt.Sprintf("%s Average", c.Window), fmt.Sprintf("$%.2f", c.ReferencePrice), true).
			AddField("Under By", fmt.Sprintf("%.1f%%", c.DropPercent), true)
	default:
		if c.ReferencePrice > 0 {
			builder.AddField("Was", fmt.Sprintf("$%.2f", c.ReferencePrice), true).
				AddField("Drop", fmt.Sprintf("%.1f%%", c.DropPercent), true)
		}
	}

	if item.ImageURL != "" {
		builder.SetThumbnail(item.ImageURL)
	}
	builder.SetFooter(item.ID, "")

	return builder.Build()
}

func dealColor(t model.DealType) int {
	switch t {
	case model.DealAllTimeLow:
		return 0xe74c3c
	case model.DealMarginOpportunity:
		return 0x2ecc71
	case model.DealClearance:
		return 0xf39c12
	default:
		return 0x3498db
	}
}
