package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"channel-signature-bot/internal/domain"
)

// Telegram length limits for message text and media captions.
const (
	MaxTextLen    = 4096
	MaxCaptionLen = 1024
)

// Entity is a formatting span of a post body. Offsets count UTF-16 code
// units from the start of the body, so appending a signature keeps them valid.
type Entity struct {
	Type     string
	Offset   int
	Length   int
	URL      string
	Language string
	UserID   int64
}

// Post is a new channel post as seen by the signer.
type Post struct {
	ChatID          int64
	Username        string
	MessageID       int
	Text            string
	Entities        []Entity
	Caption         string
	CaptionEntities []Entity
}

// PostEditor rewrites channel posts on the messaging platform. The entities
// are sent back with the new body so formatting survives the edit.
type PostEditor interface {
	EditText(ctx context.Context, chatID int64, messageID int, text string, entities []Entity) error
	EditCaption(ctx context.Context, chatID int64, messageID int, caption string, entities []Entity) error
}

type SignObserver func(outcome domain.SignOutcome)

type Signer struct {
	channels domain.ChannelRepository
	editor   PostEditor
	stats    domain.SignStatRepository
	observe  SignObserver
	logger   *slog.Logger
}

func NewSigner(channels domain.ChannelRepository, editor PostEditor, stats domain.SignStatRepository, observe SignObserver, logger *slog.Logger) *Signer {
	return &Signer{channels: channels, editor: editor, stats: stats, observe: observe, logger: logger}
}

// Signature is the suffix appended to posts of the named channel.
func Signature(name string) string {
	return "\n\n@" + strings.TrimPrefix(name, "@")
}

// Sign appends the channel signature to a post of a registered channel.
// Posts that already end with the signature are left alone, so redelivery
// never stacks signatures. Edit failures are logged, never returned.
func (s *Signer) Sign(ctx context.Context, p Post) domain.SignOutcome {
	ch, ok := s.resolve(p)
	if !ok {
		s.note(domain.SignNotRegistered)
		return domain.SignNotRegistered
	}
	outcome := s.sign(ctx, ch, p)
	s.note(outcome)
	if s.stats != nil {
		if err := s.stats.Save(domain.SignEvent{ChannelID: ch.ID, MessageID: p.MessageID, Outcome: outcome}); err != nil && s.logger != nil {
			s.logger.Warn("sign stat save failed", "channel_id", ch.ID, "error", err)
		}
	}
	return outcome
}

func (s *Signer) sign(ctx context.Context, ch domain.Channel, p Post) domain.SignOutcome {
	body, entities, limit, edit := p.Text, p.Entities, MaxTextLen, s.editor.EditText
	if body == "" {
		body, entities, limit, edit = p.Caption, p.CaptionEntities, MaxCaptionLen, s.editor.EditCaption
	}
	if body == "" {
		return domain.SignEmpty
	}
	sig := Signature(ch.Name)
	if strings.HasSuffix(body, sig) {
		return domain.SignAlreadySigned
	}
	signed := body + sig
	if utf8.RuneCountInString(signed) > limit {
		if s.logger != nil {
			s.logger.Info("post too long to sign", "channel_id", ch.ID, "message_id", p.MessageID)
		}
		return domain.SignTooLong
	}
	if err := edit(ctx, p.ChatID, p.MessageID, signed, entities); err != nil {
		if s.logger != nil {
			s.logger.Error("post edit failed", "channel_id", ch.ID, "message_id", p.MessageID, "error", err)
		}
		return domain.SignFailed
	}
	if s.logger != nil {
		s.logger.Info("post signed", "channel_id", ch.ID, "message_id", p.MessageID)
	}
	return domain.SignSigned
}

// resolve matches the numeric chat id first, then the public username.
// Handle ids are stored lower-cased; the exact spelling is still tried for
// registries written before that.
func (s *Signer) resolve(p Post) (domain.Channel, bool) {
	if ch, ok := s.channels.Get(strconv.FormatInt(p.ChatID, 10)); ok {
		return ch, true
	}
	name := strings.TrimPrefix(p.Username, "@")
	if name == "" {
		return domain.Channel{}, false
	}
	if ch, ok := s.channels.Get(strings.ToLower(name)); ok {
		return ch, true
	}
	return s.channels.Get(name)
}

func (s *Signer) note(outcome domain.SignOutcome) {
	if s.observe != nil {
		s.observe(outcome)
	}
}
