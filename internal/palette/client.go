package palette

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/kingrea/dutyflow/internal/failure"
)

// Flow names served by the prompt service.
const (
	GenerateFlow = "generateColorPaletteFlow"
	SuggestFlow  = "suggestColorApplicationFlow"
)

// Messages shown when the prompt service cannot answer.
const (
	MsgGenerateFailed = "Failed to generate palette. Please try again."
	MsgSuggestFailed  = "Failed to get suggestions. Please try again."
	MsgThrottled      = "Too many requests. Please wait a moment."
)

// Default generation throttle: one call every two seconds with a burst of 3.
var (
	DefaultRate  = rate.Every(2 * time.Second)
	DefaultBurst = 3
)

// Service is what the workbench needs from the prompt service.
type Service interface {
	Generate(ctx context.Context, keywords string) ([]Color, error)
	Suggest(ctx context.Context, hexCodes []string, designType DesignType) ([]string, error)
}

type generateInput struct {
	Keywords string `json:"keywords" validate:"required,min=3"`
}

type generateOutput struct {
	Palette []Color `json:"palette" validate:"len=5,dive"`
}

type suggestInput struct {
	ColorPalette []string   `json:"colorPalette" validate:"required,min=1"`
	DesignType   DesignType `json:"designType" validate:"required"`
}

type suggestOutput struct {
	Suggestions []string `json:"suggestions"`
}

// Client calls the prompt service's flows over HTTP. A flow is invoked with
// POST {base}/{flow} and body {"data": input}; it answers {"result": output}.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	limiter  *rate.Limiter
	validate *validator.Validate
	log      zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// WithRateLimit sets the generation throttle. A limit of rate.Inf disables it.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient returns a client for the prompt service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(DefaultRate, DefaultBurst),
		validate:   validator.New(),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Generate asks for a five-colour palette matching keywords.
func (c *Client) Generate(ctx context.Context, keywords string) ([]Color, error) {
	const op = "palette: generate"
	in := generateInput{Keywords: strings.TrimSpace(keywords)}
	if err := c.check(op, in); err != nil {
		return nil, err
	}
	if !c.limiter.Allow() {
		return nil, failure.New(failure.KindBusy, op, MsgThrottled)
	}

	var out generateOutput
	if err := c.run(ctx, op, GenerateFlow, in, &out); err != nil {
		return nil, err
	}
	for i := range out.Palette {
		out.Palette[i].HexCode = strings.ToUpper(strings.TrimSpace(out.Palette[i].HexCode))
	}
	if err := c.validate.Struct(out); err != nil {
		c.log.Warn().Err(err).Msg("palette response rejected")
		return nil, &failure.Error{Kind: failure.KindServer, Op: op, Message: "The service returned an invalid palette.", Err: err}
	}
	return out.Palette, nil
}

// Suggest returns advice for applying hexCodes to designType.
func (c *Client) Suggest(ctx context.Context, hexCodes []string, designType DesignType) ([]string, error) {
	const op = "palette: suggest"
	in := suggestInput{ColorPalette: hexCodes, DesignType: DesignType(strings.TrimSpace(string(designType)))}
	if err := c.check(op, in); err != nil {
		return nil, err
	}
	var out suggestOutput
	if err := c.run(ctx, op, SuggestFlow, in, &out); err != nil {
		return nil, err
	}
	if out.Suggestions == nil {
		out.Suggestions = []string{}
	}
	return out.Suggestions, nil
}

func (c *Client) check(op string, in any) error {
	err := c.validate.Struct(in)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return failure.Validation(op, fieldMessage(ve[0]))
	}
	return failure.Validation(op, err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Keywords":
		return "Keywords must be at least 3 characters."
	case "ColorPalette":
		return "A color palette is required."
	case "DesignType":
		return "A design type is required."
	}
	return fmt.Sprintf("%s failed validation (%s)", strings.ToLower(fe.Field()), fe.Tag())
}

func (c *Client) run(ctx context.Context, op, flow string, in, out any) error {
	payload, err := json.Marshal(struct {
		Data any `json:"data"`
	}{Data: in})
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/"+flow, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("flow", flow).Msg("prompt service unreachable")
		return failure.Network(op, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure.Network(op, err)
	}
	c.log.Debug().Str("flow", flow).Int("status", resp.StatusCode).Dur("elapsed", time.Since(started)).Msg("prompt flow")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failure.Server(op, resp.StatusCode, flowError(data))
	}
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.Result) == 0 {
		return &failure.Error{Kind: failure.KindServer, Op: op, Status: resp.StatusCode, Message: "unparseable response", Err: err}
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return &failure.Error{Kind: failure.KindServer, Op: op, Status: resp.StatusCode, Message: "unparseable response", Err: err}
	}
	return nil
}

// flowError pulls the message out of {"error":{"message"}} or
// {"error":"..."} bodies.
func flowError(data []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	var flat struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &flat) == nil {
		if flat.Message != "" {
			return flat.Message
		}
		return flat.Error
	}
	return ""
}
