package blsloader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"
)

// Notifier notifies results for each source file.
type Notifier interface {
	Notify(context.Context, *Result) error
}

// RunNotifier is notified once with the report of a whole run.
type RunNotifier interface {
	NotifyRun(context.Context, *Report) error
}

// Result is a result for each source file.
type Result struct {
	Source   Source
	Handler  *Handler
	Stats    LoadStats
	Checksum string

	// Rejected counts skipped lines; Issues holds the first of them.
	Rejected int
	Issues   []error

	Error       error
	MirrorError error
}

// SlackNotifier posts load results to a Slack channel. Used as a RunNotifier it
// posts one summary per run; used as a Notifier it posts one message per file.
type SlackNotifier struct {
	Channel   string
	IconEmoji string
	Username  string
	Token     string

	HTTPClient *http.Client
}

const slackPostMessageURL = "https://slack.com/api/chat.postMessage"

// Slack rejects longer texts.
const slackMaxText = 40000

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// NotifyRun posts totals of the run and one line per failed source.
func (n *SlackNotifier) NotifyRun(ctx context.Context, r *Report) error {
	total := r.Totals()
	failed := r.Failed()

	rejected := 0
	for _, res := range r.Results {
		rejected += res.Rejected
	}

	var b strings.Builder
	status := ":white_check_mark:"
	if len(failed) > 0 {
		status = ":warning:"
	}
	fmt.Fprintf(&b, "%s CPI load %s: %d/%d files loaded in %s\n",
		status, r.RunID, len(r.Results)-len(failed), len(r.Results), r.Elapsed.Round(time.Second))
	fmt.Fprintf(&b, "%d inserted, %d updated, %d unchanged, %d lines rejected",
		total.Inserted, total.Updated, total.Unchanged, rejected)

	for _, res := range failed {
		fmt.Fprintf(&b, "\n- %s (%s): %s", res.Source.Name, res.Source.URL, slackEscaper.Replace(res.Error.Error()))
	}

	return n.post(ctx, b.String())
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, r *Result) error {
	if r.Error != nil {
		return n.post(ctx, fmt.Sprintf("%s handler failed to load %s: %s",
			r.Handler.Name, r.Source.URL, slackEscaper.Replace(r.Error.Error())))
	}

	return n.post(ctx, fmt.Sprintf("%s handler loaded %s: %d inserted, %d updated, %d unchanged, %d rejected",
		r.Handler.Name, r.Source.URL, r.Stats.Inserted, r.Stats.Updated, r.Stats.Unchanged, r.Rejected))
}

func (n *SlackNotifier) post(ctx context.Context, text string) error {
	if len(text) > slackMaxText {
		text = text[:slackMaxText-len("\n...")] + "\n..."
	}

	var payload bytes.Buffer
	err := json.NewEncoder(&payload).Encode(map[string]string{
		"channel":    n.Channel,
		"icon_emoji": n.IconEmoji,
		"username":   n.Username,
		"text":       text,
	})
	if err != nil {
		return xerrors.Errorf("failed to encode slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, slackPostMessageURL, &payload)
	if err != nil {
		return xerrors.Errorf("failed to build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+n.Token)

	c := n.HTTPClient
	if c == nil {
		c = http.DefaultClient
	}

	resp, err := c.Do(req)
	if err != nil {
		return xerrors.Errorf("failed to post to slack: %w", err)
	}
	defer resp.Body.Close()

	// chat.postMessage reports most failures with 200 and ok=false.
	var res struct {
		OK      bool   `json:"ok"`
		Error   string `json:"error"`
		Warning string `json:"warning"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&res); err != nil {
		return xerrors.Errorf("slack responded %s with an unreadable body: %w", resp.Status, err)
	}
	if !res.OK {
		return xerrors.Errorf("slack rejected message to %s (%s): %s", n.Channel, resp.Status, res.Error)
	}
	if res.Warning != "" {
		log.Ctx(ctx).Debug().Str("warning", res.Warning).Msg("slack accepted message with a warning")
	}

	return nil
}
