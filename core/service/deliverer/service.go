// Package deliverer sends a composed digest through exactly one transport
// (e-mail or chat), resolved from the pipeline's delivery configuration
// (§4.5, I1).
package deliverer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"newsroom/core/domain"
	"newsroom/core/port/in"
	"newsroom/core/port/out"
	"newsroom/pkg/apperr"
	"newsroom/pkg/logger"
)

// Config holds e-mail-footer settings sourced from MAIL_* env vars (§6).
type Config struct {
	FrontendBaseURL string // used to build unsubscribe/manage links
}

// Service implements in.DelivererService.
type Service struct {
	pipelines out.PipelineRepository
	email     out.EmailSender
	chat      out.ChatSender
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

// New builds a deliverer Service.
func New(pipelines out.PipelineRepository, email out.EmailSender, chat out.ChatSender, cfg Config) *Service {
	return &Service{
		pipelines: pipelines, email: email, chat: chat, cfg: cfg,
		log: logger.WithField("component", "deliverer"), now: time.Now,
	}
}

var _ in.DelivererService = (*Service)(nil)

// Deliver resolves exactly one configured transport and sends the digest.
func (s *Service) Deliver(ctx context.Context, req in.DeliverRequest) error {
	emailTarget, err := s.pipelines.GetDeliveryEmail(ctx, req.PipelineID)
	if err != nil {
		return fmt.Errorf("load email delivery target: %w", err)
	}
	chatTarget, err := s.pipelines.GetDeliveryChat(ctx, req.PipelineID)
	if err != nil {
		return fmt.Errorf("load chat delivery target: %w", err)
	}

	if emailTarget != nil && chatTarget != nil {
		return apperr.Invariant(fmt.Sprintf("pipeline %d has both e-mail and chat delivery configured", req.PipelineID))
	}
	if emailTarget == nil && chatTarget == nil {
		return apperr.Invariant(fmt.Sprintf("pipeline %d has no delivery target configured", req.PipelineID))
	}

	now := s.now()
	if emailTarget != nil {
		return s.deliverEmail(ctx, *emailTarget, req, now)
	}
	return s.deliverChat(ctx, *chatTarget, req, now)
}

func (s *Service) deliverEmail(ctx context.Context, target domain.PipelineDeliveryEmail, req in.DeliverRequest, now time.Time) error {
	subject := domain.RenderSubject(target.SubjectTpl, now)
	html := withUnsubscribeFooter(req.Digest.HTML, s.cfg.FrontendBaseURL, target.Email)
	if req.PlainOnly {
		s.writePlainOnlySiblings(req, target.Email, subject)
	}
	if err := s.email.SendHTML(ctx, target.Email, subject, html, req.Digest.Plain); err != nil {
		return apperr.Delivery("email", err)
	}
	return nil
}

// writePlainOnlySiblings emits the <ts>.txt plain-text copy and <ts>.eml raw
// dump alongside the persisted HTML artifact when plain-only mode is on
// (§6 "Artifact layout": "the .eml dump appears when plain-only is
// enabled"), grounded on pipeline_runner.py's _write_plain_copy_if_needed
// and its `--dump-msg` mail_deliver.py flag. Best-effort: a write failure
// here only loses a debugging convenience, never the delivery itself,
// mirroring the original's own try/except-and-warn around this step.
func (s *Service) writePlainOnlySiblings(req in.DeliverRequest, to, subject string) {
	if req.Digest.ArtifactPath == "" {
		return
	}
	base := strings.TrimSuffix(req.Digest.ArtifactPath, filepath.Ext(req.Digest.ArtifactPath))

	if err := os.WriteFile(base+".txt", []byte(req.Digest.Plain), 0o644); err != nil {
		s.log.WithError(err).Warn("plain-text artifact sibling not written")
	}

	eml := fmt.Sprintf("To: %s\nSubject: %s\n\n%s\n", to, subject, req.Digest.Plain)
	if err := os.WriteFile(base+".eml", []byte(eml), 0o644); err != nil {
		s.log.WithError(err).Warn("eml dump sibling not written")
	}
}

func (s *Service) deliverChat(ctx context.Context, target domain.PipelineDeliveryChat, req in.DeliverRequest, now time.Time) error {
	title := domain.RenderSubject(target.TitleTpl, now)

	// The minigame writer (§4.4 "Minigame digest") is also delivered over
	// chat, via its own card body shape; fall back to the ordinary chat
	// markdown digest when no minigame body was rendered.
	body := req.Digest.Markdown
	if req.Digest.Minigame != "" {
		body = req.Digest.Minigame
	}

	toAll := target.ToAllChat
	chatID := target.ChatID
	if req.ChatIDOverride != "" {
		chatID = req.ChatIDOverride
		toAll = false
	} else if req.ToAllOverride {
		toAll = true
	}

	var chatIDs []string
	if toAll {
		ids, err := s.chat.ResolveAllChats(ctx)
		if err != nil {
			return apperr.Delivery("chat", err)
		}
		chatIDs = ids
	} else {
		chatIDs = []string{chatID}
	}

	var lastErr error
	sent := 0
	for _, chatID := range chatIDs {
		if err := s.chat.SendCard(ctx, chatID, title, body); err != nil {
			s.log.WithField("chat_id", chatID).WithError(err).Warn("chat send failed")
			lastErr = err
			continue
		}
		sent++
	}
	if sent == 0 && lastErr != nil {
		return apperr.Delivery("chat", lastErr)
	}
	return nil
}

// withUnsubscribeFooter splices an unsubscribe/manage link into the
// rendered HTML footer when a frontend base URL is configured (§4.4's
// footer, resolved here once the recipient e-mail is known).
func withUnsubscribeFooter(html, baseURL, recipient string) string {
	if baseURL == "" || html == "" {
		return html
	}
	link := fmt.Sprintf(`<p class="footer"><a href="%s/unsubscribe?email=%s">退订</a></p>`, strings.TrimRight(baseURL, "/"), recipient)
	if idx := strings.LastIndex(html, "</body>"); idx != -1 {
		return html[:idx] + link + "\n" + html[idx:]
	}
	return html + link
}
