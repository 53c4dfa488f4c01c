// internal/intent/patterns.go
package intent

import "github.com/AlphaGL/Finda-backend-sub000/internal/models"

// pattern is one row of the declarative classification table. Keywords are
// matched as whole tokens and contribute priority*0.6 each; phrases are
// matched as substrings and contribute priority*1.0 each.
type pattern struct {
	Type     models.IntentType
	Priority float64
	Keywords []string
	Phrases  []string
}

const (
	keywordWeight = 0.6
	phraseWeight  = 1.0
)

// patternTable drives generic classification. Declaration order is the tie
// break: when two categories score equally, the one declared first wins.
var patternTable = []pattern{
	{
		Type:     models.IntentGreeting,
		Priority: 2.0,
		Keywords: []string{"hi", "hello", "hey", "morning", "afternoon", "evening"},
		Phrases:  []string{"good morning", "good afternoon", "good evening", "how are you"},
	},
	{
		Type:     models.IntentThanks,
		Priority: 2.0,
		Keywords: []string{"thanks", "thank", "thx", "appreciated"},
		Phrases:  []string{"thank you", "much appreciated"},
	},
	{
		Type:     models.IntentGoodbye,
		Priority: 2.0,
		Keywords: []string{"bye", "goodbye", "later", "ciao"},
		Phrases:  []string{"see you", "talk later", "good night"},
	},
	{
		Type:     models.IntentExternalSearch,
		Priority: 1.8,
		Keywords: []string{"amazon", "jumia", "aliexpress", "ebay", "konga"},
		Phrases:  []string{"results from", "search online", "check online", "from the internet", "search the web"},
	},
	{
		Type:     models.IntentComparison,
		Priority: 1.5,
		Keywords: []string{"compare", "versus", "vs", "better", "cheaper"},
		Phrases:  []string{"difference between", "which is better", "which one should"},
	},
	{
		Type:     models.IntentPriceInquiry,
		Priority: 1.4,
		Keywords: []string{"price", "cost", "much", "cheap", "expensive", "afford", "budget"},
		Phrases:  []string{"how much", "price of", "what does it cost", "price range"},
	},
	{
		Type:     models.IntentServiceRequest,
		Priority: 1.2,
		Keywords: []string{"plumber", "electrician", "cleaner", "tailor", "mechanic", "repair", "service", "barber", "tutor"},
		Phrases:  []string{"i need someone", "looking for someone", "who can fix", "home service"},
	},
	{
		Type:     models.IntentProductSearch,
		Priority: 1.0,
		Keywords: []string{"buy", "need", "want", "looking", "find", "phone", "laptop", "shoes", "dress", "bag", "samsung", "iphone", "tv"},
		Phrases:  []string{"looking for", "i want to buy", "do you have", "show me"},
	},
	{
		Type:     models.IntentCategoryBrowse,
		Priority: 1.0,
		Keywords: []string{"categories", "browse", "sections", "catalog"},
		Phrases:  []string{"what do you sell", "what categories", "show categories", "what do you have"},
	},
}
