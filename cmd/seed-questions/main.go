package main

import (
	"context"
	"fmt"
	"time"

	"github.com/quizgate/quizgate-backend/internal/config"
	"github.com/quizgate/quizgate-backend/internal/database"
	"github.com/quizgate/quizgate-backend/internal/logger"
	"github.com/quizgate/quizgate-backend/internal/model"
	"github.com/quizgate/quizgate-backend/internal/repository"
	"github.com/quizgate/quizgate-backend/internal/service"
)

// Seeds a general-knowledge bank large enough to cover the default draw size
// with room to spare, so fresh installs can run a quiz immediately.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	questionRepo := repository.NewQuestionRepository(pool)
	questionService := service.NewQuestionService(questionRepo)

	seeds := []model.CreateQuestionRequest{
		{Prompt: "Which planet is known as the Red Planet?", Options: []string{"Venus", "Mars", "Jupiter", "Saturn"}, CorrectIndex: 1},
		{Prompt: "What is the chemical symbol for gold?", Options: []string{"Ag", "Au", "Gd", "Go"}, CorrectIndex: 1},
		{Prompt: "Which ocean is the largest by area?", Options: []string{"Atlantic", "Indian", "Pacific", "Arctic"}, CorrectIndex: 2},
		{Prompt: "Who painted the Mona Lisa?", Options: []string{"Michelangelo", "Raphael", "Leonardo da Vinci", "Donatello"}, CorrectIndex: 2},
		{Prompt: "What is the smallest prime number?", Options: []string{"0", "1", "2", "3"}, CorrectIndex: 2},
		{Prompt: "Which gas do plants absorb during photosynthesis?", Options: []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"}, CorrectIndex: 2},
		{Prompt: "In which year did the Second World War end?", Options: []string{"1943", "1944", "1945", "1946"}, CorrectIndex: 2},
		{Prompt: "What is the capital of Australia?", Options: []string{"Sydney", "Melbourne", "Canberra", "Perth"}, CorrectIndex: 2},
		{Prompt: "How many sides does a hexagon have?", Options: []string{"5", "6", "7", "8"}, CorrectIndex: 1},
		{Prompt: "Which element has the atomic number 1?", Options: []string{"Helium", "Hydrogen", "Lithium", "Oxygen"}, CorrectIndex: 1},
		{Prompt: "Who wrote the play Romeo and Juliet?", Options: []string{"Charles Dickens", "William Shakespeare", "Jane Austen", "Mark Twain"}, CorrectIndex: 1},
		{Prompt: "What is the largest mammal on Earth?", Options: []string{"African elephant", "Blue whale", "Giraffe", "Orca"}, CorrectIndex: 1},
		{Prompt: "Which country is home to the Great Barrier Reef?", Options: []string{"Brazil", "Indonesia", "Australia", "Mexico"}, CorrectIndex: 2},
		{Prompt: "What is the square root of 144?", Options: []string{"10", "11", "12", "14"}, CorrectIndex: 2},
		{Prompt: "Which instrument measures atmospheric pressure?", Options: []string{"Thermometer", "Barometer", "Hygrometer", "Anemometer"}, CorrectIndex: 1},
		{Prompt: "What is the longest river in the world?", Options: []string{"Amazon", "Nile", "Yangtze", "Mississippi"}, CorrectIndex: 1},
		{Prompt: "Which language has the most native speakers?", Options: []string{"English", "Hindi", "Mandarin Chinese", "Spanish"}, CorrectIndex: 2},
		{Prompt: "How many continents are there?", Options: []string{"5", "6", "7", "8"}, CorrectIndex: 2},
		{Prompt: "What is the freezing point of water in Fahrenheit?", Options: []string{"0", "32", "100", "212"}, CorrectIndex: 1},
		{Prompt: "Which planet has the most moons?", Options: []string{"Earth", "Mars", "Jupiter", "Saturn"}, CorrectIndex: 3},
		{Prompt: "Who developed the theory of general relativity?", Options: []string{"Isaac Newton", "Albert Einstein", "Niels Bohr", "Galileo Galilei"}, CorrectIndex: 1},
		{Prompt: "What is the hardest natural substance on Earth?", Options: []string{"Gold", "Iron", "Diamond", "Quartz"}, CorrectIndex: 2},
		{Prompt: "Which organ filters blood in the human body?", Options: []string{"Heart", "Liver", "Kidney", "Lung"}, CorrectIndex: 2},
		{Prompt: "What is the currency of Japan?", Options: []string{"Won", "Yuan", "Yen", "Ringgit"}, CorrectIndex: 2},
		{Prompt: "How many degrees are in a right angle?", Options: []string{"45", "90", "180", "360"}, CorrectIndex: 1},
	}

	fmt.Printf("=== Seeding %d Questions ===\n", len(seeds))

	successCount := 0
	for i := range seeds {
		if _, err := questionService.Create(ctx, &seeds[i]); err != nil {
			fmt.Printf("Error creating question %d: %v\n", i+1, err)
			continue
		}
		successCount++
		if (i+1)%10 == 0 {
			fmt.Printf("Created %d questions...\n", i+1)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d questions.\n", successCount, len(seeds))
}
