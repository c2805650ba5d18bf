// Package catalog holds the built-in onboarding questionnaires and the
// validation every catalog must pass before the flow may use it.
package catalog

import (
	"fmt"

	"onboarding-service/internal/domain"
)

// Builtin returns the canonical catalog for every persona.
func Builtin() map[domain.Persona]domain.Catalog {
	return map[domain.Persona]domain.Catalog{
		domain.PersonaCreator:      {Persona: domain.PersonaCreator, Questions: creatorQuestions()},
		domain.PersonaEntrepreneur: {Persona: domain.PersonaEntrepreneur, Questions: entrepreneurQuestions()},
	}
}

// QuestionsFor returns the ordered built-in questions for persona.
func QuestionsFor(persona domain.Persona) ([]domain.Question, error) {
	c, ok := Builtin()[persona]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPersona, persona)
	}
	return c.Questions, nil
}

// Validate checks the invariants the flow relies on: a known persona, at
// least one question, unique non-empty ids, and options for choice kinds.
func Validate(c domain.Catalog) error {
	if _, err := domain.ParsePersona(string(c.Persona)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
	}
	if len(c.Questions) == 0 {
		return fmt.Errorf("%w: %s has no questions", domain.ErrInvalidCatalog, c.Persona)
	}
	seen := make(map[string]struct{}, len(c.Questions))
	for i, q := range c.Questions {
		if q.ID == "" {
			return fmt.Errorf("%w: %s question %d has no id", domain.ErrInvalidCatalog, c.Persona, i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: %s duplicate question id %q", domain.ErrInvalidCatalog, c.Persona, q.ID)
		}
		seen[q.ID] = struct{}{}

		switch q.Kind {
		case domain.KindText:
		case domain.KindDropdown, domain.KindChips:
			if len(q.Options) == 0 {
				return fmt.Errorf("%w: %s question %q has no options", domain.ErrInvalidCatalog, c.Persona, q.ID)
			}
			opts := make(map[string]struct{}, len(q.Options))
			for _, o := range q.Options {
				if _, dup := opts[o]; dup || o == "" {
					return fmt.Errorf("%w: %s question %q has empty or duplicate option %q", domain.ErrInvalidCatalog, c.Persona, q.ID, o)
				}
				opts[o] = struct{}{}
			}
		default:
			return fmt.Errorf("%w: %s question %q has unknown kind %q", domain.ErrInvalidCatalog, c.Persona, q.ID, q.Kind)
		}
	}
	return nil
}

// ValidateAll validates every built-in catalog; used at startup.
func ValidateAll(catalogs map[domain.Persona]domain.Catalog) error {
	for _, p := range domain.Personas() {
		c, ok := catalogs[p]
		if !ok {
			return fmt.Errorf("%w: missing catalog for %s", domain.ErrInvalidCatalog, p)
		}
		if c.Persona != p {
			return fmt.Errorf("%w: catalog keyed %s declares persona %q", domain.ErrInvalidCatalog, p, c.Persona)
		}
		if err := Validate(c); err != nil {
			return err
		}
	}
	return nil
}

func creatorQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:          "channelName",
			Label:       "What is your channel name or brand name?",
			Kind:        domain.KindText,
			Placeholder: "e.g., @YourChannel or YourBrand",
		},
		{
			ID:    "contentType",
			Label: "What type of content do you create?",
			Kind:  domain.KindChips,
			Options: []string{
				"Tech Reviews", "Vlogs", "Tutorials", "Gaming", "Beauty & Fashion",
				"Fitness & Health", "Education", "Entertainment", "Business & Finance",
				domain.OtherOption,
			},
		},
		{
			ID:    "targetAudience",
			Label: "Who is your target audience?",
			Kind:  domain.KindChips,
			Options: []string{
				"Young Professionals", "Students", "Entrepreneurs", "Parents",
				"Teenagers", "Seniors", "General Audience", domain.OtherOption,
			},
		},
		{
			ID:    "goals",
			Label: "What are your main goals as a creator?",
			Kind:  domain.KindChips,
			Options: []string{
				"Grow Subscribers", "Monetize Content", "Build Community", "Increase Engagement",
				"Brand Partnerships", "Create Products", "Full-time Career", domain.OtherOption,
			},
		},
		{
			ID:    "platform",
			Label: "What platforms do you primarily use?",
			Kind:  domain.KindChips,
			Options: []string{
				"YouTube", "TikTok", "Instagram", "Twitch", "Twitter/X",
				"LinkedIn", "Facebook", domain.OtherOption,
			},
		},
		{
			ID:    "currentSize",
			Label: "What is your current audience size?",
			Kind:  domain.KindDropdown,
			Options: []string{
				"Just starting (0-100)", "Small (100-1K)", "Growing (1K-10K)",
				"Established (10K-100K)", "Large (100K-1M)", "Very Large (1M+)",
			},
		},
		{
			ID:    "monetization",
			Label: "How do you plan to monetize?",
			Kind:  domain.KindChips,
			Options: []string{
				"Sponsorships", "Affiliate Marketing", "Products/Merch", "Courses",
				"Consulting", "Memberships", "Donations", domain.OtherOption,
			},
		},
	}
}

// entrepreneurQuestions is the short, dropdown-heavy questionnaire.
func entrepreneurQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:          "businessName",
			Label:       "What is your business name?",
			Kind:        domain.KindText,
			Placeholder: "e.g., TechStart Inc.",
		},
		{
			ID:    "industry",
			Label: "What industry are you in?",
			Kind:  domain.KindDropdown,
			Options: []string{
				"SaaS", "E-commerce", "Consulting", "Healthcare", "Finance", "Education",
				"Real Estate", "Food & Beverage", "Technology", "Marketing", domain.OtherOption,
			},
		},
		{
			ID:    "businessStage",
			Label: "What stage is your business at?",
			Kind:  domain.KindDropdown,
			Options: []string{
				"Idea/Planning", "MVP Development", "Early Stage",
				"Growth Stage", "Established", "Scaling",
			},
		},
		{
			ID:    "revenueGoal",
			Label: "What is your revenue goal for this year?",
			Kind:  domain.KindDropdown,
			Options: []string{
				"Under $10K", "$10K - $50K", "$50K - $100K",
				"$100K - $500K", "$500K - $1M", "$1M+",
			},
		},
		{
			ID:    "targetMarket",
			Label: "Who is your target market?",
			Kind:  domain.KindChips,
			Options: []string{
				"Small Businesses", "Enterprise", "Consumers", "B2B", "B2C",
				"Non-profit", "Government", domain.OtherOption,
			},
		},
		{
			ID:      "teamSize",
			Label:   "What is your current team size?",
			Kind:    domain.KindDropdown,
			Options: []string{"Solo Founder", "2-5 People", "6-20 People", "21-50 People", "50+ People"},
		},
		{
			ID:    "challenges",
			Label: "What are your biggest challenges right now?",
			Kind:  domain.KindChips,
			Options: []string{
				"Customer Acquisition", "Product Development", "Scaling", "Funding",
				"Team Building", "Marketing", "Operations", domain.OtherOption,
			},
		},
	}
}
