package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/autobrr/autobrr/pkg/errors"
	"github.com/autobrr/autobrr/pkg/sharedhttp"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/seedgc/pkg/config"
)

const (
	maxEmbedsPerMessage = 10
	maxCharactersPerMsg = 6000

	// past this many torrents only the summary is sent
	maxTotalFields = 250
)

type DiscordMessage struct {
	Content   interface{}    `json:"content"`
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds,omitempty"`
}

type DiscordEmbed struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Color       int                  `json:"color"`
	Fields      []DiscordEmbedsField `json:"fields,omitempty"`
	Footer      DiscordEmbedsFooter  `json:"footer,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

type DiscordEmbedsFooter struct {
	Text string `json:"text"`
}

type DiscordEmbedsField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedColor int

const (
	ColorLightBlue EmbedColor = 0x58b9ff
	ColorRed       EmbedColor = 0xed4245
	ColorOrange    EmbedColor = 0xe67e22
	ColorGray      EmbedColor = 0x99aab5
)

func (a Action) color() EmbedColor {
	switch a {
	case ActionRetention:
		return ColorLightBlue
	case ActionEviction:
		return ColorOrange
	case ActionFailure:
		return ColorRed
	}

	return ColorGray
}

var discordMarkdownChars = regexp.MustCompile(`([\\*_~` + "`" + `|>])`)

func escapeDiscordMarkdown(text string) string {
	return discordMarkdownChars.ReplaceAllString(text, `\$1`)
}

type discordSender struct {
	log    *logrus.Entry
	config config.NotificationsConfig

	httpClient  *http.Client
	rateLimiter *RateLimiter
	now         func() time.Time
}

func NewDiscordSender(log *logrus.Entry, cfg config.NotificationsConfig) Sender {
	l := log.WithField("sender", "discord")

	return &discordSender{
		log:    l,
		config: cfg,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: sharedhttp.Transport,
		},
		rateLimiter: NewRateLimiter(l),
		now:         time.Now,
	}
}

func (d *discordSender) Name() string {
	return "discord"
}

func (d *discordSender) CanSend() bool {
	return d.config.Service.Discord.WebhookURL != ""
}

func (d *discordSender) Send(ctx context.Context, msg Message) error {
	if len(msg.Fields) == 0 && d.config.SkipEmptyRun {
		d.log.Debug("Nothing removed, skipping notification")
		return nil
	}

	title := msg.Title
	if msg.DryRun {
		title += " [Dry Run]"
	}

	batches, err := batchEmbeds(d.buildEmbeds(title, msg))
	if err != nil {
		return err
	}

	for i, batch := range batches {
		if batch[0].Title == "" {
			batch[0].Title = escapeDiscordMarkdown(title)
			if len(batches) > 1 {
				batch[0].Title = fmt.Sprintf("%s (%d/%d)", batch[0].Title, i+1, len(batches))
			}
		}

		body, err := json.Marshal(DiscordMessage{
			Username:  d.config.Service.Discord.Username,
			AvatarURL: d.config.Service.Discord.AvatarURL,
			Embeds:    batch,
		})
		if err != nil {
			return errors.Wrap(err, "could not marshal discord message")
		}

		if err := d.sendRequest(ctx, body); err != nil {
			return errors.Wrap(err, "failed to send message %d/%d to discord", i+1, len(batches))
		}

		d.log.Debugf("Sent Discord message %d/%d (%d embeds, %d chars)", i+1, len(batches), len(batch), len(body))
	}

	return nil
}

// buildEmbeds returns one embed per field followed by a summary, or just the
// summary when detail is disabled or there are too many fields.
func (d *discordSender) buildEmbeds(title string, msg Message) []DiscordEmbed {
	ts := d.now()
	rt := msg.RunTime.Truncate(time.Millisecond).String()
	total := len(msg.Fields)

	summary := DiscordEmbed{
		Title:       escapeDiscordMarkdown(title),
		Description: msg.Description,
		Color:       int(ColorGray),
		Footer:      DiscordEmbedsFooter{Text: buildFooter(0, 0, msg.Client, rt)},
		Timestamp:   ts,
	}

	if total == 0 || total > maxTotalFields || !d.config.Detailed {
		return []DiscordEmbed{summary}
	}

	embeds := make([]DiscordEmbed, 0, total+1)
	for i, f := range msg.Fields {
		e := DiscordEmbed{
			Color:     int(f.Action.color()),
			Fields:    d.inlineFields(f.Value),
			Footer:    DiscordEmbedsFooter{Text: buildFooter(i+1, total, msg.Client, rt)},
			Timestamp: ts,
		}
		if f.Name != "" {
			e.Description = fmt.Sprintf("**%s**", escapeDiscordMarkdown(f.Name))
		}
		embeds = append(embeds, e)
	}

	if total > 1 {
		summary.Title = fmt.Sprintf("%s - Summary", summary.Title)
		embeds = append(embeds, summary)
	}

	return embeds
}

// batchEmbeds splits embeds into messages that respect Discord's embed count and size limits.
func batchEmbeds(embeds []DiscordEmbed) ([][]DiscordEmbed, error) {
	var (
		batches [][]DiscordEmbed
		current []DiscordEmbed
		chars   int
	)

	for _, e := range embeds {
		b, err := json.Marshal(e)
		if err != nil {
			return nil, errors.Wrap(err, "failed to calculate embed size for batching")
		}

		if len(current) > 0 && (len(current) >= maxEmbedsPerMessage || chars+len(b) > maxCharactersPerMsg) {
			batches = append(batches, current)
			current, chars = nil, 0
		}

		current = append(current, e)
		chars += len(b)
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches, nil
}

func (d *discordSender) sendRequest(ctx context.Context, body []byte) error {
	webhook := d.config.Service.Discord.WebhookURL
	bucket := bucketFromURL(webhook)

	if err := d.rateLimiter.Wait(ctx, bucket); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "could not create request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := d.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "client request error")
	}
	defer res.Body.Close()

	d.rateLimiter.Update(bucket, res.Header)
	d.log.Tracef("Discord response status: %d", res.StatusCode)

	switch res.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusTooManyRequests:
		return errors.New("discord rate limit exceeded")
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, 4096))
	if err != nil {
		return errors.Wrap(err, "could not read body")
	}

	return errors.New("unexpected status: %v body: %v", res.StatusCode, string(b))
}

// bucketFromURL keys rate limits by webhook id (https://discord.com/api/webhooks/{id}/{token}).
func bucketFromURL(webhookURL string) string {
	u, err := url.Parse(webhookURL)
	if err == nil {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := 0; i+1 < len(parts); i++ {
			if parts[i] == "webhooks" {
				return "webhook_" + parts[i+1]
			}
		}
	}

	return "webhook_default"
}

func (d *discordSender) BuildField(action Action, opt BuildOptions) Field {
	t := opt.Torrent
	fields := []DiscordEmbedsField{
		{Name: "Ratio", Value: fmt.Sprintf("%.2f", t.Ratio), Inline: true},
	}

	if opt.AgeDays > 0 {
		fields = append(fields, DiscordEmbedsField{Name: "Age", Value: fmt.Sprintf("%d days", opt.AgeDays), Inline: true})
	}

	if t.Label != "" {
		fields = append(fields, DiscordEmbedsField{Name: "Label", Value: escapeDiscordMarkdown(t.Label), Inline: true})
	}

	if t.TrackerName != "" {
		fields = append(fields, DiscordEmbedsField{Name: "Tracker", Value: escapeDiscordMarkdown(t.TrackerName), Inline: true})
	}

	if action == ActionEviction {
		fields = append(fields, DiscordEmbedsField{Name: "Free Space", Value: fmt.Sprintf("%d GB", opt.FreeSpaceGB), Inline: true})
	}

	if opt.Reason != "" {
		fields = append(fields, DiscordEmbedsField{Name: "Reason", Value: escapeDiscordMarkdown(opt.Reason)})
	}

	if opt.Err != nil {
		fields = append(fields, DiscordEmbedsField{Name: "Error", Value: escapeDiscordMarkdown(opt.Err.Error())})
	}

	b, _ := json.Marshal(fields)

	return Field{
		Name:   fmt.Sprintf("%s (%s)", t.Name, humanize.IBytes(uint64(t.TotalBytes))),
		Value:  string(b),
		Action: action,
	}
}

func (d *discordSender) inlineFields(value string) []DiscordEmbedsField {
	var fields []DiscordEmbedsField
	if err := json.Unmarshal([]byte(value), &fields); err != nil {
		d.log.WithError(err).Error("Failed to parse field value as JSON")
		return []DiscordEmbedsField{}
	}

	return fields
}

func buildFooter(progress int, total int, client string, runTime string) string {
	if total == 0 {
		return fmt.Sprintf("Client: %s | Started: %s ago", client, runTime)
	}

	return fmt.Sprintf("Progress: %d/%d | Client: %s | Started: %s ago", progress, total, client, runTime)
}
