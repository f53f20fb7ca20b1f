// Package interpreter maps free-text commands, typically transcribed speech,
// onto the same timer requests a UI button would issue. It only talks to the
// bus: recognized commands become registry requests, and the caller learns
// nothing beyond "recognized or not".
package interpreter

import (
	"regexp"
	"strings"

	"github.com/chefwhisper/recipe-viewer/internal/bus"
	"github.com/chefwhisper/recipe-viewer/internal/logger"
	"github.com/chefwhisper/recipe-viewer/internal/models"
	"github.com/chefwhisper/recipe-viewer/internal/registry"
)

// echoPhrases are the system's own spoken confirmations. Hearing one back
// through the microphone must not trigger anything, or the assistant ends up
// commanding itself in a loop.
var echoPhrases = map[string]struct{}{
	"timer started":      {},
	"timer paused":       {},
	"timer reset":        {},
	"timer removed":      {},
	"timer created":      {},
	"timer complete":     {},
	"timer completed":    {},
	"your timer is done": {},
	"time is up":         {},
	"all timers started": {},
	"all timers paused":  {},
	"all timers cleared": {},
}

// intentRe captures "<verb> <target>" control commands, tolerating filler
// words and an optional trailing qualifier.
var intentRe = regexp.MustCompile(
	`^(?:please\s+|hey\s+|ok\s+)?` +
		`(start|pause|resume|stop|reset|restart|cancel|clear|remove|close)\s+` +
		`(?:the\s+|my\s+|a\s+)?(.+)$`)

var batchTargets = map[string]struct{}{
	"all": {}, "everything": {}, "all timers": {}, "all of them": {}, "them all": {},
}

// stopWords mirrors the registry resolver's notion of insignificant tokens.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "my": {}, "for": {}, "to": {},
	"of": {}, "and": {}, "please": {}, "timer": {},
}

type pattern struct {
	re     *regexp.Regexp
	action func(i *Interpreter)
}

// Interpreter consumes the free-text command topic.
type Interpreter struct {
	b        *bus.Bus
	client   *registry.Client
	log      *logger.Logger
	patterns []pattern
	unsub    bus.UnsubscribeFunc
}

// New builds an interpreter with the default fallback pattern table. The
// client must be the interpreter's own instance; it shares nothing with other
// callers.
func New(b *bus.Bus, client *registry.Client, log *logger.Logger) *Interpreter {
	i := &Interpreter{b: b, client: client, log: log}
	i.patterns = []pattern{
		// Evaluated in registration order, first match wins. These catch
		// phrasings the intent and creation stages let through.
		{regexp.MustCompile(`^(?:set|create|make|add)(?: me)?(?: a| another)? timer(?: please)?$`),
			func(i *Interpreter) { i.client.Create(models.CreateRequest{}) }},
		{regexp.MustCompile(`^(?:hold|freeze) (?:everything|all(?: timers)?)$`),
			func(i *Interpreter) { i.client.PauseAll() }},
		{regexp.MustCompile(`^(?:continue|go on)(?: (?:all|everything))?$`),
			func(i *Interpreter) { i.client.StartAll() }},
		{regexp.MustCompile(`^(?:wipe|drop) (?:everything|all(?: timers)?)$`),
			func(i *Interpreter) { i.client.ClearAll() }},
	}
	return i
}

// Start subscribes to the inbound command topic.
func (i *Interpreter) Start() {
	i.unsub = i.b.Subscribe(models.TopicCommandProcess, i.handleCommand)
}

// Stop detaches from the bus.
func (i *Interpreter) Stop() {
	if i.unsub != nil {
		i.unsub()
		i.unsub = nil
	}
}

func (i *Interpreter) handleCommand(p any) {
	req, ok := p.(models.CommandRequest)
	if !ok {
		if i.log != nil {
			i.log.Errorw("command_malformed", "topic", models.TopicCommandProcess)
		}
		return
	}
	recognized := i.ProcessCommand(req.Command)
	i.b.Publish(models.TopicCommandResult, models.CommandResult{Recognized: recognized})
}

// ProcessCommand translates one command into zero or more registry requests
// and reports whether anything was recognized. Stages run in order: echo
// rejection, direct intent, natural-language creation, fallback patterns.
func (i *Interpreter) ProcessCommand(command string) bool {
	raw := strings.TrimSpace(command)
	if raw == "" {
		return false
	}
	norm := normalize(raw)

	if _, echo := echoPhrases[norm]; echo {
		return false
	}
	if i.tryIntent(norm) {
		return true
	}
	if i.tryCreation(raw) {
		return true
	}
	return i.tryPatterns(norm)
}

// tryIntent handles "<verb> <target>" commands. Batch targets ("pause
// everything") go to the batch operations; anything else is resolved by name.
// The literal phrase and a single-keyword reduction are both issued, so a
// misheard multi-word name still has a chance to land.
func (i *Interpreter) tryIntent(norm string) bool {
	m := intentRe.FindStringSubmatch(norm)
	if m == nil {
		return false
	}
	verb, target := m[1], strings.TrimSpace(m[2])

	if _, all := batchTargets[target]; all {
		switch verb {
		case "start", "resume":
			i.client.StartAll()
		case "pause", "stop":
			i.client.PauseAll()
		case "reset", "restart":
			i.client.ResetAll()
		default:
			i.client.ClearAll()
		}
		return true
	}

	issue := func(name string) {
		switch verb {
		case "start", "resume":
			i.client.StartByName(name)
		case "pause", "stop":
			i.client.PauseByName(name)
		case "reset", "restart":
			i.client.ResetByName(name)
		default: // cancel, clear, remove, close
			i.client.RemoveByName(name)
		}
	}

	issue(target)
	if kw := firstKeyword(target); kw != "" && kw != target {
		issue(kw)
	}
	return true
}

// tryCreation extracts a duration from natural phrasing ("simmer the sauce
// for 10-15 minutes") and creates an auto-started timer named after the
// nearest cooking verb and ingredient.
func (i *Interpreter) tryCreation(raw string) bool {
	lowered := strings.ToLower(raw)
	seconds, matchIdx, ok := ExtractDuration(lowered)
	if !ok {
		return false
	}

	i.client.Create(models.CreateRequest{
		Name:      DeriveLabel(lowered, matchIdx),
		Duration:  seconds,
		AutoStart: true,
		Metadata: map[string]any{
			models.MetaSource:     raw,
			models.MetaMatchIndex: matchIdx,
		},
	})
	return true
}

func (i *Interpreter) tryPatterns(norm string) bool {
	for _, p := range i.patterns {
		if p.re.MatchString(norm) {
			p.action(i)
			return true
		}
	}
	return false
}

// normalize lowercases, strips punctuation and collapses whitespace. Hyphens
// survive so duration ranges stay intact.
func normalize(s string) string {
	s = strings.ToLower(s)
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// firstKeyword returns the first significant token of a phrase, used as the
// defensive single-word reduction of a multi-word target.
func firstKeyword(phrase string) string {
	for _, tok := range strings.Fields(phrase) {
		if len(tok) < 3 {
			continue
		}
		if _, skip := stopWords[tok]; skip {
			continue
		}
		return tok
	}
	return ""
}
