package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"sec_copilot/pkg/api/assistant"
	"sec_copilot/pkg/api/config"
	"sec_copilot/pkg/core/agent"
	"sec_copilot/pkg/core/marketdata"
	"sec_copilot/pkg/core/prompt"
	"sec_copilot/pkg/core/research"
	"sec_copilot/pkg/core/secapi"
	"sec_copilot/pkg/core/store"
	"sec_copilot/pkg/core/websearch"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize Prompt Library
	// Determine resources path (relative to executable or working directory)
	resourcesPath := "resources"
	if _, err := os.Stat(resourcesPath); os.IsNotExist(err) {
		exePath, _ := os.Executable()
		resourcesPath = filepath.Join(filepath.Dir(exePath), "resources")
	}
	if err := prompt.LoadFromDirectory(resourcesPath); err != nil {
		fmt.Printf("[WARNING] Failed to load prompt library: %v\n", err)
		fmt.Println("  Falling back to hardcoded prompts")
	} else {
		fmt.Printf("[PROMPT] Loaded %d prompts from %s\n", prompt.Get().Count(), resourcesPath)
	}

	// Initialize manager from config
	configData, _ := os.ReadFile("config/models.yaml")
	var agentCfg agent.Config
	yaml.Unmarshal(configData, &agentCfg)
	agentMgr := agent.NewManager(agentCfg)

	// Optional database for chat history
	ctx := context.Background()
	var history *store.HistoryRepo
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			fmt.Printf("[WARNING] Database unavailable, history disabled: %v\n", err)
		}
		history = store.NewHistoryRepo(store.GetPool())
	} else {
		history = store.NewHistoryRepo(nil)
	}

	// Wire the research pipeline and tools
	secClient := secapi.NewClient(os.Getenv("SEC_API_KEY"))
	retriever := research.NewRetriever(secClient, secapi.NewDocumentFetcher())
	retriever.SetTextCache(store.NewFilingTextCache(store.GetPool(), ""))

	provider := agentMgr.GetProvider("assistant")
	filingsTool := research.NewFilingSearchTool(retriever, research.NewSynthesizer(provider))
	priceTool := marketdata.NewPriceTool(marketdata.NewClient(""))
	searchTool := websearch.NewSearchTool(websearch.NewSearchClient(""))
	if summarizer, err := websearch.NewSummarizer(ctx); err == nil {
		searchTool.SetSummarizer(summarizer)
	}

	// Config endpoints
	configHandler := config.NewHandler(agentMgr)
	http.HandleFunc("/api/config", configHandler.HandleConfig)
	http.HandleFunc("/api/config/switch", configHandler.HandleSwitch)

	// Assistant endpoints
	assistantHandler := assistant.NewHandler(agentMgr, filingsTool, priceTool, searchTool, history)
	http.HandleFunc("/api/assistant/ask", assistantHandler.HandleAsk)
	http.HandleFunc("/api/assistant/history", assistantHandler.HandleHistory)

	// Direct tool endpoints
	http.HandleFunc("/api/tools/filings", assistantHandler.HandleFilings)
	http.HandleFunc("/api/tools/price", assistantHandler.HandlePrice)
	http.HandleFunc("/api/tools/search", assistantHandler.HandleSearch)

	fmt.Println("API server starting on :8080...")
	fmt.Println("  - POST /api/assistant/ask")
	fmt.Println("  - GET  /api/assistant/history")
	fmt.Println("  - POST /api/tools/filings")
	fmt.Println("  - POST /api/tools/price")
	fmt.Println("  - POST /api/tools/search")
	fmt.Println("  - GET  /api/config")
	fmt.Println("  - POST /api/config/switch")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
