package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const requestTimeout = 10 * time.Second

var (
	ErrNotConfigured   = errors.New("wallet provider is not configured")
	ErrProviderFailure = errors.New("wallet provider request failed")
)

// Client — адаптер к внешнему сервису билетов. Единственный владелец
// HTTP-соединения с провайдером; все вызовы с явным дедлайном.
type Client struct {
	baseURL   string
	issuerID  string
	issuerKey []byte
	http      *http.Client
}

type ClientConfig struct {
	BaseURL   string
	IssuerID  string
	IssuerKey string
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" || cfg.IssuerID == "" || cfg.IssuerKey == "" {
		return nil, ErrNotConfigured
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		issuerID:  cfg.IssuerID,
		issuerKey: []byte(cfg.IssuerKey),
		http:      &http.Client{Timeout: requestTimeout},
	}, nil
}

type TicketClass struct {
	ID        string `json:"id"`
	IssuerID  string `json:"issuer_id"`
	EventName string `json:"event_name"`
}

type TicketRequest struct {
	EventID       int    `json:"event_id"`
	EventName     string `json:"event_name"`
	EventDate     string `json:"event_date"`
	EventLocation string `json:"event_location"`
	AttendeeName  string `json:"attendee_name"`
	AttendeeEmail string `json:"attendee_email"`
	TicketType    string `json:"ticket_type"`
	TicketID      string `json:"ticket_id"`
}

type Ticket struct {
	ID            string `json:"id"`
	ClassID       string `json:"class_id"`
	EventName     string `json:"event_name"`
	EventDate     string `json:"event_date"`
	EventLocation string `json:"event_location"`
	AttendeeName  string `json:"attendee_name"`
	AttendeeEmail string `json:"attendee_email"`
	TicketType    string `json:"ticket_type"`
	State         string `json:"state"`
}

func (r TicketRequest) validate() error {
	if r.EventID <= 0 {
		return errors.New("event_id is required")
	}
	if r.EventName == "" {
		return errors.New("event_name is required")
	}
	if r.AttendeeName == "" || r.AttendeeEmail == "" {
		return errors.New("attendee_name and attendee_email are required")
	}
	return nil
}

// CreateTestClass создаёт одноразовый класс билетов у провайдера — проверка
// связности и валидности учётных данных издателя.
func (c *Client) CreateTestClass(ctx context.Context) (*TicketClass, error) {
	class := TicketClass{
		ID:        fmt.Sprintf("%s.test-%s", c.issuerID, uuid.NewString()),
		IssuerID:  c.issuerID,
		EventName: "HackingTorch connectivity test",
	}

	var created TicketClass
	if err := c.post(ctx, "/classes", class, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateTicket создаёт объект билета и возвращает ссылку сохранения,
// подписанную ключом издателя.
func (c *Client) CreateTicket(ctx context.Context, req TicketRequest) (*Ticket, string, error) {
	if err := req.validate(); err != nil {
		return nil, "", err
	}

	if req.TicketID == "" {
		req.TicketID = uuid.NewString()
	}

	ticket := Ticket{
		ID:            fmt.Sprintf("%s.%s", c.issuerID, req.TicketID),
		ClassID:       fmt.Sprintf("%s.event-%d", c.issuerID, req.EventID),
		EventName:     req.EventName,
		EventDate:     req.EventDate,
		EventLocation: req.EventLocation,
		AttendeeName:  req.AttendeeName,
		AttendeeEmail: req.AttendeeEmail,
		TicketType:    req.TicketType,
		State:         "active",
	}

	var created Ticket
	if err := c.post(ctx, "/objects", ticket, &created); err != nil {
		return nil, "", err
	}

	saveURL, err := c.signSaveURL(created.ID)
	if err != nil {
		return nil, "", err
	}
	return &created, saveURL, nil
}

func (c *Client) signSaveURL(ticketID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": c.issuerID,
		"typ": "savetowallet",
		"iat": now.Unix(),
		"payload": map[string]interface{}{
			"ticket_ids": []string{ticketID},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.issuerKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign save token: %w", err)
	}
	return fmt.Sprintf("%s/save/%s", c.baseURL, signed), nil
}

func (c *Client) post(ctx context.Context, path string, body, dst interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode wallet request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build wallet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Issuer-ID", c.issuerID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrProviderFailure, resp.StatusCode, string(raw))
	}

	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("failed to decode wallet response: %w", err)
		}
	}
	return nil
}
