package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/frontdesk-ai/frontdesk/internal/normalize"
	"github.com/frontdesk-ai/frontdesk/pkg/models"
)

// seedEntry is one question/answer pair in a seed file.
type seedEntry struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "seed <file>",
		Short: "Load question/answer pairs from a YAML file into the knowledge base",
		Long: "Seed the knowledge base directly, bypassing the supervisor flow. The file is\n" +
			"a YAML list of {question, answer} pairs; questions are normalized on the way in.",
		Args: cobra.ExactArgs(1),
		Run:  runSeed,
	}
	RootCmd.AddCommand(cmd)
}

func runSeed(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load configuration", err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		exitErr("read seed file", err)
	}
	var entries []seedEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		exitErr("parse seed file", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	ctx := context.Background()
	seeded := 0
	for i, entry := range entries {
		key := normalize.Normalize(entry.Question)
		if key == "" || entry.Answer == "" {
			fmt.Fprintf(os.Stderr, "skipping entry %d: question and answer required\n", i)
			continue
		}
		err := st.AddKnowledge(ctx, &models.KnowledgeEntry{
			ID:                 uuid.New().String(),
			NormalizedQuestion: key,
			Answer:             entry.Answer,
			Source:             models.SourceSeed,
			CreatedAt:          time.Now().UTC(),
		})
		if err != nil {
			exitErr("store knowledge entry", err)
		}
		seeded++
	}
	fmt.Printf("seeded %d knowledge entries\n", seeded)
}
