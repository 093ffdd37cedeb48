package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dvloznov/diane/internal/chat"
	"github.com/dvloznov/diane/internal/domain"
	"github.com/dvloznov/diane/internal/jobs"
	"github.com/dvloznov/diane/internal/jobs/inmemory"
	"github.com/dvloznov/diane/internal/reply"
	"github.com/dvloznov/diane/internal/store"
)

type fakeChat struct {
	HandleFunc func(ctx context.Context, message string) (*chat.Response, error)
}

func (f *fakeChat) HandleMessage(ctx context.Context, message string) (*chat.Response, error) {
	return f.HandleFunc(ctx, message)
}

type testServer struct {
	t      *testing.T
	store  *store.Store
	jobs   *inmemory.Store
	server *httptest.Server
}

func newTestServer(t *testing.T, svc *fakeChat) *testServer {
	t.Helper()

	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if svc == nil {
		svc = &fakeChat{HandleFunc: func(ctx context.Context, message string) (*chat.Response, error) {
			return &chat.Response{Reply: "ok"}, nil
		}}
	}

	jobStore := inmemory.NewStore()
	srv := httptest.NewServer(newRouter(st, svc, jobStore, []string{"*"}, zerolog.Nop()))
	t.Cleanup(srv.Close)

	return &testServer{t: t, store: st, jobs: jobStore, server: srv}
}

func (s *testServer) do(method, path string, body interface{}) (*http.Response, []byte) {
	s.t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reqBody)
	if err != nil {
		s.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		s.t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func (s *testServer) expect(method, path string, body interface{}, status int, out interface{}) {
	s.t.Helper()
	resp, data := s.do(method, path, body)
	if resp.StatusCode != status {
		s.t.Fatalf("%s %s: status = %d, want %d (body %s)", method, path, resp.StatusCode, status, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			s.t.Fatalf("%s %s: decode %s: %v", method, path, data, err)
		}
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	resp, _ := s.do(http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header")
	}
}

func TestChat(t *testing.T) {
	account := "Nubank"
	tx := &domain.Transaction{ID: 1, Amount: 50, Description: "Mercado", CategoryName: "Alimentação", AccountName: &account}

	var got string
	s := newTestServer(t, &fakeChat{HandleFunc: func(ctx context.Context, message string) (*chat.Response, error) {
		got = message
		switch message {
		case "quota":
			return &chat.Response{Reply: reply.QuotaMessage, ErrorKind: reply.ErrorKindQuota}, nil
		case "broken":
			return nil, errors.New("disk full")
		}
		return &chat.Response{Reply: "Anotado!", Transaction: tx}, nil
	}})

	var ok map[string]interface{}
	s.expect(http.MethodPost, "/api/chat", map[string]string{"message": "gastei 50 no mercado"}, http.StatusOK, &ok)
	if got != "gastei 50 no mercado" {
		t.Errorf("service received %q", got)
	}
	if ok["reply"] != "Anotado!" || ok["error_type"] != nil {
		t.Errorf("unexpected body %v", ok)
	}
	extracted, _ := ok["extracted_transaction"].(map[string]interface{})
	if extracted["description"] != "Mercado" {
		t.Errorf("extracted_transaction = %v", ok["extracted_transaction"])
	}

	var quota map[string]interface{}
	s.expect(http.MethodPost, "/api/chat", map[string]string{"message": "quota"}, http.StatusOK, &quota)
	if quota["error_type"] != "quota" || quota["extracted_transaction"] != nil {
		t.Errorf("unexpected body %v", quota)
	}

	s.expect(http.MethodPost, "/api/chat", map[string]string{"message": "  "}, http.StatusBadRequest, nil)
	s.expect(http.MethodPost, "/api/chat", map[string]string{"message": "broken"}, http.StatusInternalServerError, nil)
}

func TestChatHistory(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	if err := s.store.AppendChatTurn(ctx, "oi", "Olá!"); err != nil {
		t.Fatal(err)
	}

	var history []domain.ChatMessage
	s.expect(http.MethodGet, "/api/chat/history?limit=10", nil, http.StatusOK, &history)
	if len(history) != 2 || history[0].Role != domain.RoleUser || history[1].Content != "Olá!" {
		t.Errorf("history = %+v", history)
	}

	s.expect(http.MethodGet, "/api/chat/history?limit=0", nil, http.StatusBadRequest, nil)
}

func TestAccounts(t *testing.T) {
	s := newTestServer(t, nil)

	var created domain.Account
	s.expect(http.MethodPost, "/api/accounts", map[string]interface{}{"name": "Nubank", "balance": 1000}, http.StatusCreated, &created)
	if created.ID == 0 || created.Name != "Nubank" {
		t.Fatalf("created = %+v", created)
	}

	var dup map[string]string
	s.expect(http.MethodPost, "/api/accounts", map[string]interface{}{"name": "Nubank"}, http.StatusBadRequest, &dup)
	if dup["error"] != "conta já existe" {
		t.Errorf("duplicate error = %q", dup["error"])
	}

	var updated domain.Account
	s.expect(http.MethodPatch, "/api/accounts/"+itoa(created.ID), map[string]interface{}{"balance": 1500}, http.StatusOK, &updated)
	if updated.Balance != 1500 || updated.Name != "Nubank" {
		t.Errorf("updated = %+v", updated)
	}

	var list []domain.Account
	s.expect(http.MethodGet, "/api/accounts", nil, http.StatusOK, &list)
	if len(list) != 1 || list[0].EffectiveBalance != 1500 {
		t.Errorf("list = %+v", list)
	}

	s.expect(http.MethodPatch, "/api/accounts/999", map[string]interface{}{"balance": 1}, http.StatusNotFound, nil)
	s.expect(http.MethodPatch, "/api/accounts/abc", map[string]interface{}{"balance": 1}, http.StatusBadRequest, nil)
	s.expect(http.MethodDelete, "/api/accounts/"+itoa(created.ID), nil, http.StatusNoContent, nil)
	s.expect(http.MethodDelete, "/api/accounts/"+itoa(created.ID), nil, http.StatusNotFound, nil)
}

func TestTransactionsAndStats(t *testing.T) {
	s := newTestServer(t, nil)

	var cats []domain.Category
	s.expect(http.MethodGet, "/api/categories", nil, http.StatusOK, &cats)
	if len(cats) != len(domain.SeedCategories) {
		t.Fatalf("got %d categories", len(cats))
	}

	var pets domain.Category
	s.expect(http.MethodPost, "/api/categories", map[string]string{"name": "Pets"}, http.StatusCreated, &pets)

	var tx domain.Transaction
	s.expect(http.MethodPost, "/api/transactions", map[string]interface{}{
		"amount": 80, "description": "Ração", "category_id": pets.ID, "tx_date": "2025-01-27",
	}, http.StatusCreated, &tx)
	if tx.CategoryName != "Pets" || tx.TxDate.String() != "2025-01-27" {
		t.Errorf("tx = %+v", tx)
	}

	s.expect(http.MethodPost, "/api/transactions", map[string]interface{}{
		"amount": -1, "category_id": pets.ID, "tx_date": "2025-01-27",
	}, http.StatusBadRequest, nil)
	s.expect(http.MethodPost, "/api/transactions", map[string]interface{}{
		"amount": 1, "category_id": pets.ID, "tx_date": "27/01/2025",
	}, http.StatusBadRequest, nil)
	s.expect(http.MethodPost, "/api/transactions", map[string]interface{}{
		"amount": 1, "category_id": 9999, "tx_date": "2025-01-27",
	}, http.StatusBadRequest, nil)

	var list []domain.Transaction
	s.expect(http.MethodGet, "/api/transactions?year=2025&month=1", nil, http.StatusOK, &list)
	if len(list) != 1 {
		t.Errorf("got %d transactions", len(list))
	}
	s.expect(http.MethodGet, "/api/transactions?limit=501", nil, http.StatusBadRequest, nil)

	var stats domain.MonthlySpending
	s.expect(http.MethodGet, "/api/stats/monthly?year=2025&month=1", nil, http.StatusOK, &stats)
	if stats.Total != 80 || len(stats.ByCategory) != 1 || stats.ByCategory[0].CategoryName != "Pets" {
		t.Errorf("stats = %+v", stats)
	}
	s.expect(http.MethodGet, "/api/stats/monthly?month=13", nil, http.StatusBadRequest, nil)
}

func TestShoppingLists(t *testing.T) {
	s := newTestServer(t, nil)

	var first, second domain.ShoppingList
	s.expect(http.MethodPost, "/api/shopping-lists", map[string]string{"name": "Feira"}, http.StatusCreated, &first)
	s.expect(http.MethodPost, "/api/shopping-lists", nil, http.StatusCreated, &second)
	if second.Name != store.DefaultListName || !second.Active {
		t.Errorf("second = %+v", second)
	}

	base := "/api/shopping-lists/" + itoa(first.ID)

	var added struct {
		OK    bool                `json:"ok"`
		Added int                 `json:"added"`
		List  domain.ShoppingList `json:"list"`
	}
	s.expect(http.MethodPost, base+"/items", map[string][]string{"items": {"leite", " ", "pão"}}, http.StatusOK, &added)
	if added.Added != 2 || len(added.List.Items) != 2 {
		t.Errorf("added = %+v", added)
	}
	s.expect(http.MethodPost, base+"/items", map[string][]string{"items": {" "}}, http.StatusBadRequest, nil)

	var checked map[string]interface{}
	s.expect(http.MethodPatch, base+"/items/check", map[string][]string{"item_names": {"LEITE"}}, http.StatusOK, &checked)
	if checked["checked"] != float64(1) {
		t.Errorf("checked = %v", checked)
	}

	itemID := itoa(added.List.Items[1].ID)
	var toggled map[string]interface{}
	s.expect(http.MethodPatch, base+"/items/"+itemID+"/toggle", nil, http.StatusOK, &toggled)
	if toggled["checked"] != true {
		t.Errorf("toggled = %v", toggled)
	}
	s.expect(http.MethodPatch, base+"/items/"+itemID, map[string]string{"name": "pão integral"}, http.StatusOK, nil)
	s.expect(http.MethodDelete, base+"/items/"+itemID, nil, http.StatusNoContent, nil)
	s.expect(http.MethodDelete, base+"/items/"+itemID, nil, http.StatusNotFound, nil)

	s.expect(http.MethodPost, base+"/activate", nil, http.StatusOK, nil)
	var lists []domain.ShoppingList
	s.expect(http.MethodGet, "/api/shopping-lists", nil, http.StatusOK, &lists)
	active := 0
	for _, l := range lists {
		if l.Active {
			active++
			if l.ID != first.ID {
				t.Errorf("list %d active, want %d", l.ID, first.ID)
			}
		}
	}
	if active != 1 {
		t.Errorf("%d active lists", active)
	}

	s.expect(http.MethodPatch, base, map[string]string{"name": "Feira de sábado"}, http.StatusOK, nil)
	var got domain.ShoppingList
	s.expect(http.MethodGet, base, nil, http.StatusOK, &got)
	if got.Name != "Feira de sábado" || len(got.Items) != 1 || !got.Items[0].Checked {
		t.Errorf("got = %+v", got)
	}

	s.expect(http.MethodDelete, base, nil, http.StatusNoContent, nil)
	s.expect(http.MethodGet, base, nil, http.StatusNotFound, nil)
	s.expect(http.MethodPatch, base+"/items/check", map[string][]string{"item_names": {"x"}}, http.StatusNotFound, nil)
}

func TestProductPrices(t *testing.T) {
	s := newTestServer(t, nil)

	s.expect(http.MethodPost, "/api/product-prices", map[string]interface{}{"product_name": "Leite", "market_name": "Extra", "price": 5.9}, http.StatusCreated, nil)
	var created struct {
		Price domain.ProductPrice `json:"price"`
	}
	s.expect(http.MethodPost, "/api/product-prices", map[string]interface{}{"product_name": "leite", "market_name": "Carrefour", "price": 5.5}, http.StatusCreated, &created)
	s.expect(http.MethodPost, "/api/product-prices", map[string]interface{}{"product_name": "Leite", "market_name": "Extra", "price": 0}, http.StatusBadRequest, nil)

	var groups []domain.MarketPrices
	s.expect(http.MethodGet, "/api/product-prices", nil, http.StatusOK, &groups)
	if len(groups) != 2 {
		t.Fatalf("got %d markets", len(groups))
	}
	for _, g := range groups {
		best := g.Items[0].IsBestPrice
		if (g.MarketName == "Carrefour") != best {
			t.Errorf("market %s best = %v", g.MarketName, best)
		}
	}

	path := "/api/product-prices/" + itoa(created.Price.ID)
	s.expect(http.MethodPatch, path, map[string]interface{}{"price": 6.5}, http.StatusOK, nil)
	s.expect(http.MethodDelete, path, nil, http.StatusNoContent, nil)
	s.expect(http.MethodDelete, path, nil, http.StatusNotFound, nil)
}

func TestPromptLogs(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	for _, kind := range []domain.PromptKind{domain.PromptKindChat, domain.PromptKindTransaction, domain.PromptKindChat} {
		if _, err := s.store.InsertPromptLog(ctx, domain.PromptLog{Kind: kind, PromptText: "p", ResponseText: "r", Model: "m"}); err != nil {
			t.Fatal(err)
		}
	}

	var logs []domain.PromptLog
	s.expect(http.MethodGet, "/api/prompt-logs?kind=chat", nil, http.StatusOK, &logs)
	if len(logs) != 2 {
		t.Errorf("got %d chat logs", len(logs))
	}
	s.expect(http.MethodGet, "/api/prompt-logs?limit=1&offset=1", nil, http.StatusOK, &logs)
	if len(logs) != 1 {
		t.Errorf("got %d logs with limit 1", len(logs))
	}
	s.expect(http.MethodGet, "/api/prompt-logs?offset=-1", nil, http.StatusBadRequest, nil)
}

func TestJobs(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	job := &jobs.ExportJob{JobID: "job-1", Type: jobs.JobTypeMirrorTransaction, Status: jobs.JobStatusCompleted}
	if err := s.jobs.SaveJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	var got jobs.ExportJob
	s.expect(http.MethodGet, "/api/jobs/job-1", nil, http.StatusOK, &got)
	if got.Type != jobs.JobTypeMirrorTransaction {
		t.Errorf("job = %+v", got)
	}
	s.expect(http.MethodGet, "/api/jobs/missing", nil, http.StatusNotFound, nil)

	var list struct {
		Count int `json:"count"`
	}
	s.expect(http.MethodGet, "/api/jobs?type=mirror_prompt_log", nil, http.StatusOK, &list)
	if list.Count != 0 {
		t.Errorf("count = %d, want 0", list.Count)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
