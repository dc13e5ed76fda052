// Package assistant exposes the conversational research pipeline over
// HTTP: one routed ask endpoint plus direct endpoints for each tool.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"sec_copilot/pkg/core/agent"
	"sec_copilot/pkg/core/marketdata"
	"sec_copilot/pkg/core/prompt"
	"sec_copilot/pkg/core/research"
	"sec_copilot/pkg/core/resolver"
	"sec_copilot/pkg/core/store"
	"sec_copilot/pkg/core/utils"
	"sec_copilot/pkg/core/websearch"
)

// Routes the ask endpoint can dispatch to.
const (
	RouteFilingSearch = "filing_search"
	RouteStockPrice   = "stock_price"
	RouteWebSearch    = "web_search"
	RouteChat         = "chat"
)

// Handler provides HTTP handlers for the research assistant
type Handler struct {
	agentMgr *agent.Manager
	filings  *research.FilingSearchTool
	price    *marketdata.PriceTool
	web      *websearch.SearchTool
	history  *store.HistoryRepo
}

// NewHandler creates a new assistant handler
func NewHandler(mgr *agent.Manager, filings *research.FilingSearchTool, price *marketdata.PriceTool, web *websearch.SearchTool, history *store.HistoryRepo) *Handler {
	return &Handler{
		agentMgr: mgr,
		filings:  filings,
		price:    price,
		web:      web,
		history:  history,
	}
}

// AskRequest is the user's natural language question
type AskRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

// AskResponse carries the answer and the routing decision
type AskResponse struct {
	Answer string `json:"answer"`
	Route  string `json:"route"`
}

type routeDecision struct {
	Route  string `json:"route"`
	Ticker string `json:"ticker,omitempty"`
}

// fallbackRouterPrompt is used when the prompt library has no
// assistant.router entry.
const fallbackRouterPrompt = `You route investment research questions to one of four tools.
Routes:
- filing_search: questions about SEC filings, financial statements, revenue, earnings, balance sheets, 10-K/10-Q content
- stock_price: questions about a stock's current or recent price
- web_search: questions about recent news, events, or anything not found in filings
- chat: greetings and general questions that need no data lookup

Respond with ONLY a JSON object: {"route": "<route>", "ticker": "<ticker if a price question>"}`

// HandleAsk routes a question to the right tool and returns the answer
func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		http.Error(w, "Question is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	decision := h.routeQuestion(ctx, req.Question)
	answer := h.dispatch(ctx, req.Question, decision)

	if h.history != nil {
		if _, err := h.history.SaveExchange(ctx, req.SessionID, req.Question, answer, decision.Route); err != nil {
			fmt.Printf("[WARNING] Failed to save exchange: %v\n", err)
		}
	}

	json.NewEncoder(w).Encode(AskResponse{Answer: answer, Route: decision.Route})
}

// routeQuestion asks the LLM for a routing decision, falling back to
// keyword matching when the model is unavailable or answers garbage.
func (h *Handler) routeQuestion(ctx context.Context, question string) routeDecision {
	systemPrompt := fallbackRouterPrompt
	if p, err := prompt.GetRoutingPrompt(); err == nil && p != "" {
		systemPrompt = p
	}

	resp, err := h.agentMgr.ExecutePrompt(ctx, "router", question, systemPrompt, nil)
	if err != nil {
		return h.fallbackKeywordRoute(question)
	}

	var decision routeDecision
	if _, err := utils.SmartParse(utils.CleanMarkdown(resp), &decision); err != nil || !validRoute(decision.Route) {
		return h.fallbackKeywordRoute(question)
	}
	return decision
}

func validRoute(route string) bool {
	switch route {
	case RouteFilingSearch, RouteStockPrice, RouteWebSearch, RouteChat:
		return true
	}
	return false
}

// fallbackKeywordRoute provides basic keyword routing when the LLM is unavailable
func (h *Handler) fallbackKeywordRoute(question string) routeDecision {
	q := strings.ToLower(question)

	priceWords := []string{"price", "trading at", "quote", "worth right now", "share cost"}
	for _, kw := range priceWords {
		if strings.Contains(q, kw) {
			ticker, _ := resolver.Resolve(question)
			return routeDecision{Route: RouteStockPrice, Ticker: ticker}
		}
	}

	filingWords := []string{"filing", "10-k", "10-q", "revenue", "earnings", "income", "balance sheet", "cash flow", "financial statement", "sec", "annual report", "quarterly report"}
	for _, kw := range filingWords {
		if strings.Contains(q, kw) {
			return routeDecision{Route: RouteFilingSearch}
		}
	}

	newsWords := []string{"news", "latest", "today", "this week", "announce"}
	for _, kw := range newsWords {
		if strings.Contains(q, kw) {
			return routeDecision{Route: RouteWebSearch}
		}
	}

	// A resolvable company with no other signal is still a filings question.
	if _, ok := resolver.Resolve(question); ok {
		return routeDecision{Route: RouteFilingSearch}
	}

	return routeDecision{Route: RouteChat}
}

func (h *Handler) dispatch(ctx context.Context, question string, decision routeDecision) string {
	switch decision.Route {
	case RouteStockPrice:
		ticker := decision.Ticker
		if ticker == "" {
			ticker, _ = resolver.Resolve(question)
		}
		if ticker == "" {
			return "I couldn't tell which company you mean. Please include a ticker symbol, e.g. \"What is the price of AMZN?\""
		}
		return h.price.GetPrice(ctx, ticker)

	case RouteWebSearch:
		return h.web.Run(ctx, question)

	case RouteChat:
		answer, err := h.agentMgr.ExecutePrompt(ctx, "assistant", question,
			"You are a helpful investment research assistant. Answer briefly. For data questions, suggest asking about SEC filings or stock prices.", nil)
		if err != nil {
			return "I can help with SEC filings, stock prices, and company news. What would you like to know?"
		}
		return utils.CleanMarkdown(answer)

	default:
		return h.filings.Search(ctx, question)
	}
}

// ToolRequest is the body of the direct tool endpoints
type ToolRequest struct {
	Query  string `json:"query,omitempty"`
	Ticker string `json:"ticker,omitempty"`
}

// ToolResponse is the direct tool endpoints' reply
type ToolResponse struct {
	Result string `json:"result"`
}

// HandleFilings runs the filing search tool directly
func (h *Handler) HandleFilings(w http.ResponseWriter, r *http.Request) {
	h.handleTool(w, r, func(ctx context.Context, req ToolRequest) string {
		return h.filings.Search(ctx, req.Query)
	})
}

// HandlePrice runs the price tool directly
func (h *Handler) HandlePrice(w http.ResponseWriter, r *http.Request) {
	h.handleTool(w, r, func(ctx context.Context, req ToolRequest) string {
		ticker := req.Ticker
		if ticker == "" {
			ticker, _ = resolver.Resolve(req.Query)
		}
		return h.price.GetPrice(ctx, ticker)
	})
}

// HandleSearch runs the web search tool directly
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	h.handleTool(w, r, func(ctx context.Context, req ToolRequest) string {
		return h.web.Run(ctx, req.Query)
	})
}

func (h *Handler) handleTool(w http.ResponseWriter, r *http.Request, run func(context.Context, ToolRequest) string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	json.NewEncoder(w).Encode(ToolResponse{Result: run(r.Context(), req)})
}

// HandleHistory returns recent exchanges for a session
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	exchanges, err := h.history.ListRecent(r.Context(), sessionID, 20)
	if err != nil {
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	if exchanges == nil {
		exchanges = []store.Exchange{}
	}
	json.NewEncoder(w).Encode(exchanges)
}
