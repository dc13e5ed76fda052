package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"sec_copilot/pkg/core/agent"
	"sec_copilot/pkg/core/prompt"
	"sec_copilot/pkg/core/research"
	"sec_copilot/pkg/core/secapi"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// One-shot CLI: run the filing research pipeline for a single question
// and print the answer.
func main() {
	question := flag.String("q", "", "Question to answer, e.g. \"Show me the financial statements for Amazon\"")
	flag.Parse()

	if *question == "" {
		fmt.Println("Usage: ask -q \"<question>\"")
		os.Exit(1)
	}

	godotenv.Load()

	if err := prompt.LoadFromDirectory("resources"); err != nil {
		fmt.Printf("[WARNING] Prompt library not loaded, using hardcoded prompts: %v\n", err)
	}

	configData, _ := os.ReadFile("config/models.yaml")
	var agentCfg agent.Config
	yaml.Unmarshal(configData, &agentCfg)
	agentMgr := agent.NewManager(agentCfg)

	secClient := secapi.NewClient(os.Getenv("SEC_API_KEY"))
	retriever := research.NewRetriever(secClient, secapi.NewDocumentFetcher())
	synthesizer := research.NewSynthesizer(agentMgr.GetProvider("assistant"))
	tool := research.NewFilingSearchTool(retriever, synthesizer)

	fmt.Println(tool.Search(context.Background(), *question))
}
