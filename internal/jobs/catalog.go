package jobs

// Catalog returns the built-in set of open positions.
func Catalog() *Jobs {
	return &Jobs{Items: []*Job{
		{
			ID:       "3286618BR",
			Title:    "Java Technical Lead",
			Location: "Weehawken, New Jersey",
			Country:  "United States",
			Division: "Group Functions",
			Rank:     "Director",
			Score:    88,
			Description: &Description{
				Requirements: "Bachelor's degree, 10+ years Java, ReactJS, .NET experience",
				Salary:       "$158,000 to $250,000",
				Location:     "Weehawken, NJ",
				Team:         "Global Wealth Management Technology",
			},
		},
		{
			ID:       "2144332",
			Title:    "Senior Compliance Manager",
			Location: "Zurich",
			Country:  "Switzerland",
			Division: "Personal & Corporate Banking",
			Rank:     "Director",
			Score:    85,
			Description: &Description{
				Requirements: "8+ years compliance experience, regulatory knowledge",
				Location:     "Zurich",
				Team:         "P&C Compliance",
			},
		},
		{
			ID:       "2037913",
			Title:    "Risk Management Lead",
			Location: "Singapore",
			Country:  "Singapore",
			Division: "Global Wealth Management",
			Rank:     "Director",
			Score:    82,
		},
		{
			ID:       "3451287",
			Title:    "Financial Crime Prevention Specialist",
			Location: "London",
			Country:  "United Kingdom",
			Division: "Investment Bank",
			Rank:     "Vice President",
			Score:    79,
		},
		{
			ID:       "2983746",
			Title:    "Business Risk Analyst",
			Location: "New York",
			Country:  "United States",
			Division: "Asset Management",
			Rank:     "Associate Director",
			Score:    76,
		},
	}}
}
