package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider implements Provider using Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client

	// structured holds the JSON-mode model used for classification and
	// extraction; freeform is the plain-text model used for recommendations
	// and tips.
	structured *genai.GenerativeModel
	freeform   *genai.GenerativeModel

	budgetCeiling float64
}

// NewGeminiProvider initializes a new Gemini client.
// apiKey should be provided from environment variables. budgetCeiling is the
// upper bound (per person) the extraction prompt tells the model to enforce.
func NewGeminiProvider(ctx context.Context, apiKey string, budgetCeiling float64) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Gemini 2.0 Flash for low latency and cost efficiency.
	structured := client.GenerativeModel("gemini-2.0-flash")
	structured.ResponseMIMEType = "application/json"
	structured.SetTemperature(0.3)

	freeform := client.GenerativeModel("gemini-2.0-flash")
	freeform.SetTemperature(0.7)

	return &GeminiProvider{
		client:        client,
		structured:    structured,
		freeform:      freeform,
		budgetCeiling: budgetCeiling,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

const topicPrompt = `Your job is to determine whether a message is related to travel or trip planning.

ALLOWED topics (travel related):
- Destinations, cities, countries
- Travel dates and trip duration
- Number of passengers or companions
- Travel budgets and costs
- Transport (plane, train, car)
- Accommodation (hotels, apartments)
- Tourist activities
- Travel documents (passport, visa)
- Corrections or changes to trip information

NOT ALLOWED topics:
- Politics, religion, ideologies
- Sexual or inappropriate content
- Violence or harmful content
- Complex medical matters
- Finance unrelated to travel
- Technology unrelated to travel
- General chit-chat unrelated to travel

Respond ONLY with JSON:
{
    "is_travel_related": true_or_false,
    "reason": "brief_explanation_when_not_related"
}`

// ClassifyTopic asks the model whether the utterance stays on-topic.
func (p *GeminiProvider) ClassifyTopic(ctx context.Context, utterance string) (*TopicResult, error) {
	prompt := fmt.Sprintf("%s\n\nUser message: %q", topicPrompt, utterance)

	text, err := p.generateStructured(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result TopicResult
	if err := json.Unmarshal([]byte(cleanJSONString(text)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, text)
	}
	return &result, nil
}

// ExtractTripDetails runs one round of slot extraction over the utterance.
func (p *GeminiProvider) ExtractTripDetails(ctx context.Context, utterance string, current TripDetails, today time.Time) (*ExtractionResult, error) {
	prompt := fmt.Sprintf("%s\n\n%s", p.extractionPrompt(), extractionInput(utterance, current, today))

	text, err := p.generateStructured(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result ExtractionResult
	if err := json.Unmarshal([]byte(cleanJSONString(text)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, text)
	}
	return &result, nil
}

func (p *GeminiProvider) extractionPrompt() string {
	return fmt.Sprintf(`You are a professional travel assistant collecting the information needed to plan a trip.

IMPORTANT RULES:
1. You ONLY discuss travel and tourism topics
2. If the user asks about anything else, gently steer them back to their trip
3. Validate that dates make sense (departure before return, nothing in the past)
4. Validate that budgets are realistic (greater than 0, at most %.0f)
5. Validate that the passenger count is realistic (1-20 people)
6. Normalize city and country names to their standard form

Your job is to:
1. Extract trip information from the user's message
2. Keep any information already collected
3. Produce a natural reply that moves the conversation forward
4. If information is missing, ask for it naturally
5. Flag anything inconsistent or unrealistic

The information to collect:
- passengers: number of travellers (integer, 1-20)
- origin: departure city (string, "City, Country")
- destination: destination city (string, "City, Country")
- departure_date: departure date (YYYY-MM-DD, not in the past)
- return_date: return date (YYYY-MM-DD, after departure_date)
- budget_per_person: budget per person in euros (decimal, 50-%.0f)

ALWAYS respond with JSON in this exact structure:
{
    "extracted_info": {
        "passengers": null_or_number,
        "origin": null_or_string,
        "destination": null_or_string,
        "departure_date": null_or_string_YYYY-MM-DD,
        "return_date": null_or_string_YYYY-MM-DD,
        "budget_per_person": null_or_number
    },
    "response": "natural_reply_to_the_user",
    "validation_issues": ["list_of_problems_if_any"]
}

Return null for every field the message does not mention. Keep replies
friendly and professional. Once everything is collected and valid, confirm
the details and say you will process the request.`, p.budgetCeiling, p.budgetCeiling)
}

func extractionInput(utterance string, current TripDetails, today time.Time) string {
	var b strings.Builder
	b.WriteString("Current trip information:\n")
	fmt.Fprintf(&b, "- Passengers: %s\n", formatIntField(current.Passengers))
	fmt.Fprintf(&b, "- Origin: %s\n", formatStringField(current.Origin))
	fmt.Fprintf(&b, "- Destination: %s\n", formatStringField(current.Destination))
	fmt.Fprintf(&b, "- Departure date: %s\n", formatStringField(current.DepartureDate))
	fmt.Fprintf(&b, "- Return date: %s\n", formatStringField(current.ReturnDate))
	fmt.Fprintf(&b, "- Budget per person: %s\n", formatFloatField(current.BudgetPerPerson))
	fmt.Fprintf(&b, "\nNew user message: %q\n", utterance)
	fmt.Fprintf(&b, "\nToday's date: %s\n", today.Format("2006-01-02"))
	b.WriteString("\nExtract any new information from the message, check that it is consistent, and produce an appropriate reply.")
	return b.String()
}

// GenerateRecommendations produces the final recommendation text for a
// completed trip.
func (p *GeminiProvider) GenerateRecommendations(ctx context.Context, details TripDetails) (string, error) {
	prompt := fmt.Sprintf(`You are a travel expert producing personalised recommendations.

Trip information:
- Destination: %s
- Origin: %s
- Passengers: %s
- Dates: %s to %s
- Budget per person: %s

Produce useful, specific recommendations covering:
1. Best neighbourhoods or areas to stay in
2. Must-see activities for those dates
3. Typical dishes to try
4. Practical transport advice
5. Rough cost estimates (accommodation, food, activities)

Keep the recommendations concise but useful.`,
		formatStringField(details.Destination),
		formatStringField(details.Origin),
		formatIntField(details.Passengers),
		formatStringField(details.DepartureDate),
		formatStringField(details.ReturnDate),
		formatFloatField(details.BudgetPerPerson),
	)

	return p.generateFreeform(ctx, prompt)
}

// GenerateQuickTips produces short destination tips.
func (p *GeminiProvider) GenerateQuickTips(ctx context.Context, destination string) (string, error) {
	prompt := fmt.Sprintf(`Give 5-7 quick, useful tips for travelling to %s.

Cover:
- Best time of year to visit
- Currency and tipping
- Public transport
- 2-3 main attractions
- A typical dish to try
- One important cultural tip

Keep each tip to one or two lines at most.`, destination)

	return p.generateFreeform(ctx, prompt)
}

func (p *GeminiProvider) generateStructured(ctx context.Context, prompt string) (string, error) {
	return generate(ctx, p.structured, prompt)
}

func (p *GeminiProvider) generateFreeform(ctx context.Context, prompt string) (string, error) {
	return generate(ctx, p.freeform, prompt)
}

func generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty text response from Gemini")
	}
	return text.String(), nil
}

func formatIntField(v *int) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *v)
}

func formatStringField(v *string) string {
	if v == nil {
		return "unknown"
	}
	return *v
}

func formatFloatField(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.2f", *v)
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
