package httpapi

import (
	"time"

	"github.com/dmitrijs2005/flippy/internal/server/models"
	"github.com/dmitrijs2005/flippy/internal/server/services"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"notblank,max=255"`
	Password string `json:"password" validate:"required,max=1024"`
}

type cardDraftDTO struct {
	Question string `json:"question" validate:"notblank"`
	Answer   string `json:"answer" validate:"notblank"`
}

type createCardGroupRequest struct {
	Name        string         `json:"name" validate:"notblank,max=255"`
	Description string         `json:"description" validate:"max=2000"`
	Cards       []cardDraftDTO `json:"cards" validate:"required,min=1,max=500,dive"`
}

type generateExplanationRequest struct {
	CardID     int64  `json:"cardId"`
	Difficulty string `json:"difficulty"`
}

type generateCardsRequest struct {
	SourceText string `json:"sourceText" validate:"notblank"`
}

type adminRequest struct {
	UserID        int64  `json:"userId" validate:"gt=0"`
	AdminEmail    string `json:"adminEmail"`
	AdminPassword string `json:"adminPassword"`
}

func (a adminRequest) credentials() services.AdminCredentials {
	return services.AdminCredentials{Email: a.AdminEmail, Password: a.AdminPassword}
}

type updateUserRequest struct {
	adminRequest
	UserType          *string `json:"userType"`
	Role              *string `json:"role"`
	APICallsIncrement *int    `json:"apiCallsIncrement"`
}

type generateAPIKeyRequest struct {
	adminRequest
	KeyName string `json:"keyName" validate:"max=100"`
}

type profileResponse struct {
	Email             string `json:"email"`
	Role              string `json:"role"`
	RemainingAPICalls int    `json:"remainingApiCalls"`
}

type cardDTO struct {
	ID                     int64      `json:"id"`
	GroupID                int64      `json:"groupId"`
	Question               string     `json:"question"`
	Answer                 string     `json:"answer"`
	ExplanationText        *string    `json:"explanationText"`
	ExplanationDifficulty  *string    `json:"explanationDifficulty"`
	ExplanationGeneratedAt *time.Time `json:"explanationGeneratedAt"`
	CreatedAt              time.Time  `json:"createdAt"`
}

type cardGroupDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	Cards       []cardDTO `json:"cards"`
}

func newCardGroupDTOs(groups []models.CardGroup) []cardGroupDTO {
	out := make([]cardGroupDTO, 0, len(groups))
	for _, g := range groups {
		cards := make([]cardDTO, 0, len(g.Cards))
		for _, c := range g.Cards {
			cards = append(cards, cardDTO{
				ID:                     c.ID,
				GroupID:                c.GroupID,
				Question:               c.Question,
				Answer:                 c.Answer,
				ExplanationText:        c.ExplanationText,
				ExplanationDifficulty:  c.ExplanationDifficulty,
				ExplanationGeneratedAt: c.ExplanationGeneratedAt,
				CreatedAt:              c.CreatedAt,
			})
		}
		out = append(out, cardGroupDTO{
			ID:          g.ID,
			Name:        g.Name,
			Description: g.Description,
			CreatedAt:   g.CreatedAt,
			Cards:       cards,
		})
	}
	return out
}

func draftsFromDTO(in []cardDraftDTO) []models.CardDraft {
	out := make([]models.CardDraft, len(in))
	for i, c := range in {
		out[i] = models.CardDraft{Question: c.Question, Answer: c.Answer}
	}
	return out
}

func draftsToDTO(in []models.CardDraft) []cardDraftDTO {
	out := make([]cardDraftDTO, len(in))
	for i, c := range in {
		out[i] = cardDraftDTO{Question: c.Question, Answer: c.Answer}
	}
	return out
}

// userDTO never carries the password hash.
type userDTO struct {
	ID                int64     `json:"id"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	RemainingAPICalls int       `json:"remainingApiCalls"`
	CreatedAt         time.Time `json:"createdAt"`
}

func newUserDTOs(users []models.User) []userDTO {
	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, userDTO{
			ID:                u.ID,
			Email:             u.Email,
			Role:              u.Role,
			RemainingAPICalls: u.RemainingAPICalls,
			CreatedAt:         u.CreatedAt,
		})
	}
	return out
}

type endpointStatDTO struct {
	Method          string    `json:"method"`
	Endpoint        string    `json:"endpoint"`
	RequestCount    int64     `json:"requestCount"`
	AvgResponseTime float64   `json:"avgResponseTime"`
	LastRequest     time.Time `json:"lastRequest"`
}

type userUsageDTO struct {
	ID                int64  `json:"id"`
	Email             string `json:"email"`
	Role              string `json:"role"`
	RemainingAPICalls int    `json:"remainingApiCalls"`
	TotalRequests     int64  `json:"totalRequests"`
	APIKey            string `json:"apiKey"`
}
