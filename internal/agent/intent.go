package agent

import "strings"

// Intent is the knowledge bucket a user message is routed to. The bucket
// selects the specialist system prompt for the reply.
type Intent string

const (
	IntentEngagementHiring     Intent = "engagement_hiring"
	IntentProcessCommunication Intent = "process_communication"
	IntentTechnicalCapability  Intent = "technical_capability"
	IntentBusinessTrust        Intent = "business_trust"
	IntentDomainExpertise      Intent = "domain_expertise"
	IntentGeneralChat          Intent = "general_chat"
)

var intentKeywords = map[Intent][]string{
	IntentEngagementHiring:     {"hire", "hiring", "developer", "developers", "quote", "cost", "rate", "hourly", "team", "engage"},
	IntentProcessCommunication: {"communication", "communicate", "agile", "sprint", "nda", "support", "maintenance", "process", "how do you work"},
	IntentTechnicalCapability:  {"react", "node", "aws", "golang", "python", "scaling", "scale", "security", "integration", "integrations", "api", "stack"},
	IntentBusinessTrust:        {"startup", "startups", "success", "stories", "rating", "ratings", "review", "reviews", "why choose", "trust", "clients"},
	IntentDomainExpertise:      {"dashboard", "lms", "cart", "ecommerce", "fintech", "healthcare", "marketplace", "saas"},
}

// Classify maps a user message to an intent by keyword scoring. No match
// falls through to general chat.
func Classify(message string) Intent {
	msg := strings.ToLower(message)

	best := IntentGeneralChat
	bestScore := 0
	for _, intent := range []Intent{
		IntentEngagementHiring,
		IntentProcessCommunication,
		IntentTechnicalCapability,
		IntentBusinessTrust,
		IntentDomainExpertise,
	} {
		score := 0
		for _, kw := range intentKeywords[intent] {
			if strings.Contains(msg, kw) {
				score++
			}
		}
		if score > bestScore {
			best = intent
			bestScore = score
		}
	}
	return best
}

var intentContext = map[Intent]string{
	IntentEngagementHiring:     "The user is asking about engagement models, hiring, rates, or team composition. Cover dedicated teams, hourly and fixed-price models, and typical ramp-up time.",
	IntentProcessCommunication: "The user is asking about working process and communication. Cover agile sprints, status reporting cadence, NDAs, and post-launch support and maintenance.",
	IntentTechnicalCapability:  "The user is asking about technical capability. Cover the core stack, cloud infrastructure, scaling practices, security posture, and third-party integrations.",
	IntentBusinessTrust:        "The user is asking about credibility. Cover client success stories, review platform ratings, and experience with startups and established businesses.",
	IntentDomainExpertise:      "The user is asking about domain experience. Cover dashboards, learning platforms, commerce, fintech, and healthcare delivery.",
	IntentGeneralChat:          "The user is making small talk. Be warm and brief, and offer to help with questions about services or capabilities.",
}

// SystemPrompt builds the specialist prompt for the intent.
func (i Intent) SystemPrompt() string {
	ctx, ok := intentContext[i]
	if !ok {
		ctx = intentContext[IntentGeneralChat]
	}
	return "You are a helpful assistant for a software consultancy, answering questions from prospective clients on its website.\n\n" +
		ctx + "\n\nKeep answers concise and conversational. Do not invent specific figures or client names."
}
