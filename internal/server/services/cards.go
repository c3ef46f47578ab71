package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/flippy/internal/common"
	"github.com/dmitrijs2005/flippy/internal/dbx"
	"github.com/dmitrijs2005/flippy/internal/logging"
	"github.com/dmitrijs2005/flippy/internal/server/aiclient"
	"github.com/dmitrijs2005/flippy/internal/server/documents"
	"github.com/dmitrijs2005/flippy/internal/server/explain"
	"github.com/dmitrijs2005/flippy/internal/server/metrics"
	"github.com/dmitrijs2005/flippy/internal/server/models"
	"github.com/dmitrijs2005/flippy/internal/server/repositories/repomanager"
)

// CardGroupResult summarises a successful CreateCardGroup.
type CardGroupResult struct {
	GroupID           int64
	CardsCreated      int
	RemainingAPICalls int
}

// ExplanationResult is the outcome of GenerateExplanation.
type ExplanationResult struct {
	CardID      int64
	Difficulty  string
	Explanation string
	GeneratedAt time.Time
}

type CardService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	generator   aiclient.CardGenerator
	archiver    documents.Archiver
	log         logging.Logger
}

// NewCardService constructs a CardService. archiver may be nil, which
// disables document archiving.
func NewCardService(db *sql.DB, m repomanager.RepositoryManager, gen aiclient.CardGenerator, archiver documents.Archiver, log logging.Logger) *CardService {
	return &CardService{
		db:          db,
		repomanager: m,
		generator:   gen,
		archiver:    archiver,
		log:         log.With("service", "cards"),
	}
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, msg)
}

// MaxCardsPerGroup bounds one CreateCardGroup call; the cards go to the
// database as a single multi-row INSERT with two parameters per card.
const MaxCardsPerGroup = 500

func validateDrafts(name string, cards []models.CardDraft) error {
	if strings.TrimSpace(name) == "" {
		return validationError("name is required")
	}
	if len(cards) == 0 {
		return validationError("cards must be a non-empty array")
	}
	if len(cards) > MaxCardsPerGroup {
		return validationError(fmt.Sprintf("cards must contain at most %d items", MaxCardsPerGroup))
	}
	for i, c := range cards {
		if strings.TrimSpace(c.Question) == "" || strings.TrimSpace(c.Answer) == "" {
			return validationError(fmt.Sprintf("card %d must have a question and an answer", i))
		}
	}
	return nil
}

// CreateCardGroup spends one API call and stores the group with all of its
// cards. Quota, group and cards commit together or not at all; the quota
// cost is one call whatever the number of cards.
func (s *CardService) CreateCardGroup(ctx context.Context, userID int64, name, description string, cards []models.CardDraft) (*CardGroupResult, error) {
	if err := validateDrafts(name, cards); err != nil {
		return nil, err
	}

	res := &CardGroupResult{}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		remaining, err := s.repomanager.Users(tx).DecrementQuota(ctx, userID)
		if err != nil {
			return err
		}
		res.RemainingAPICalls = remaining

		group, err := s.repomanager.CardGroups(tx).Create(ctx, &models.CardGroup{
			UserID:      userID,
			Name:        strings.TrimSpace(name),
			Description: description,
		})
		if err != nil {
			return fmt.Errorf("error creating card group: %w", err)
		}
		res.GroupID = group.ID

		n, err := s.repomanager.Cards(tx).CreateBatch(ctx, group.ID, cards)
		if err != nil {
			return fmt.Errorf("error creating cards: %w", err)
		}
		res.CardsCreated = n
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrQuotaExhausted) {
			metrics.QuotaRejections.Inc()
			s.log.Info(ctx, "card group refused, quota exhausted", "user_id", userID)
			return nil, common.ErrQuotaExhausted
		}
		s.log.Error(ctx, "create card group", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}

	s.log.Info(ctx, "card group created", "user_id", userID, "group_id", res.GroupID, "cards", res.CardsCreated)
	return res, nil
}

// ListCardGroups returns the user's groups newest first, each with its
// cards in id order.
func (s *CardService) ListCardGroups(ctx context.Context, userID int64) ([]models.CardGroup, error) {
	groups, err := s.repomanager.CardGroups(s.db).ListByUser(ctx, userID)
	if err != nil {
		s.log.Error(ctx, "list card groups", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}

	cards, err := s.repomanager.Cards(s.db).ListByOwner(ctx, userID)
	if err != nil {
		s.log.Error(ctx, "list cards", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}

	byGroup := make(map[int64][]models.Card, len(groups))
	for _, c := range cards {
		byGroup[c.GroupID] = append(byGroup[c.GroupID], c)
	}

	for i := range groups {
		groups[i].Cards = byGroup[groups[i].ID]
		if groups[i].Cards == nil {
			groups[i].Cards = []models.Card{}
		}
	}
	if groups == nil {
		groups = []models.CardGroup{}
	}

	return groups, nil
}

// GenerateExplanation writes a fresh explanation for one of the user's
// cards, replacing any previous one. A card the user does not own is
// reported as not found.
func (s *CardService) GenerateExplanation(ctx context.Context, userID, cardID int64, difficulty string) (*ExplanationResult, error) {
	difficulty = explain.Normalize(difficulty)
	if !common.IsValidDifficulty(difficulty) {
		return nil, validationError("difficulty must be one of: easy, medium, hard")
	}

	repo := s.repomanager.Cards(s.db)

	card, err := repo.GetOwned(ctx, cardID, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.log.Error(ctx, "load card", "user_id", userID, "card_id", cardID, "error", err)
		return nil, common.ErrorInternal
	}

	text := explain.Generate(card.Question, card.Answer, difficulty)

	at, err := repo.SetExplanation(ctx, cardID, userID, text, difficulty)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.log.Error(ctx, "store explanation", "user_id", userID, "card_id", cardID, "error", err)
		return nil, common.ErrorInternal
	}

	return &ExplanationResult{CardID: cardID, Difficulty: difficulty, Explanation: text, GeneratedAt: at}, nil
}

// GenerateCards drafts flashcards from sourceText with the AI generator.
// Nothing is persisted; the client saves the drafts it keeps through
// CreateCardGroup. Archiving failures are logged and ignored.
func (s *CardService) GenerateCards(ctx context.Context, userID int64, sourceText string) ([]models.CardDraft, error) {
	if strings.TrimSpace(sourceText) == "" {
		return nil, validationError("sourceText is required")
	}

	if s.archiver != nil {
		key, err := s.archiver.Archive(ctx, userID, sourceText)
		if err != nil {
			s.log.Warn(ctx, "archive source document", "user_id", userID, "error", err)
		} else {
			s.log.Debug(ctx, "source document archived", "user_id", userID, "key", key)
		}
	}

	drafts, err := s.generator.GenerateCards(ctx, sourceText)
	if err != nil {
		s.log.Error(ctx, "generate cards", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrUpstream, err)
	}

	return drafts, nil
}
