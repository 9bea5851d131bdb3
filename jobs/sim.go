package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
)

// TaskTypeSimOrder triggers one simulated incoming order against the API.
const TaskTypeSimOrder = "sim:order"

// SimOrderPayload points the simulator at a running API instance.
type SimOrderPayload struct {
	BaseURL string `json:"base_url"`
}

// NewSimOrderTask constructs an Asynq task for the order simulator.
func NewSimOrderTask(baseURL string) (*asynq.Task, error) {
	data, err := json.Marshal(SimOrderPayload{BaseURL: baseURL})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSimOrder, data, asynq.Queue(QueueDefault)), nil
}

var simCustomers = []struct {
	Name    string
	Phone   string
	Address string
}{
	{"Rahul Sharma", "+91 98765 43210", "12 MG Road, Bengaluru"},
	{"Priya Patel", "+91 87654 32109", "45 Linking Road, Mumbai"},
	{"Amit Kumar", "+91 76543 21098", "78 Park Street, Kolkata"},
	{"Sneha Reddy", "+91 65432 10987", "23 Jubilee Hills, Hyderabad"},
	{"Vikram Singh", "+91 54321 09876", "56 Connaught Place, Delhi"},
}

// Simulator places a small random order through the public API. It is
// stateless on purpose: the worker shares no memory with the API process,
// so the simulated order travels the same path a real one would.
type Simulator struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type simProduct struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"is_available"`
}

type simStoreInfo struct {
	IsOpen bool `json:"is_open"`
}

// Handle processes TaskTypeSimOrder tasks.
func (s *Simulator) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SimOrderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.BaseURL == "" {
		return asynq.SkipRetry
	}

	client := s.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	var info simStoreInfo
	if err := s.getJSON(ctx, client, payload.BaseURL+"/api/store", &info); err != nil {
		return err
	}
	if !info.IsOpen {
		s.log().DebugContext(ctx, "sim order skipped, store closed")
		return nil
	}

	var products []simProduct
	if err := s.getJSON(ctx, client, payload.BaseURL+"/api/products", &products); err != nil {
		return err
	}
	available := products[:0]
	for _, p := range products {
		if p.IsAvailable {
			available = append(available, p)
		}
	}
	if len(available) == 0 {
		s.log().DebugContext(ctx, "sim order skipped, nothing in stock")
		return nil
	}

	pick := available[rand.Intn(len(available))]
	customer := simCustomers[rand.Intn(len(simCustomers))]
	qty := 1 + rand.Intn(3)
	paymentType := "COD"
	if rand.Intn(2) == 0 {
		paymentType = "Online"
	}

	body, err := json.Marshal(map[string]any{
		"customer_name":    customer.Name,
		"customer_phone":   customer.Phone,
		"customer_address": customer.Address,
		"payment_type":     paymentType,
		"items": []map[string]any{{
			"product_id":   pick.ID,
			"product_name": pick.Name,
			"quantity":     qty,
			"price":        pick.Price,
		}},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, payload.BaseURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sim order: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusCreated:
		s.log().InfoContext(ctx, "sim order placed",
			slog.String("product", pick.Name),
			slog.Int("quantity", qty))
		return nil
	case http.StatusUnprocessableEntity:
		// Stock ran out between listing and ordering. Fine, skip.
		s.log().DebugContext(ctx, "sim order rejected for stock", slog.String("product", pick.Name))
		return nil
	default:
		return fmt.Errorf("sim order: unexpected status %d", resp.StatusCode)
	}
}

func (s *Simulator) getJSON(ctx context.Context, client *http.Client, url string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sim fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sim fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

func (s *Simulator) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
