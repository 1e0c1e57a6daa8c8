package quiz

import "strings"

// template is a curated question bank matched to a topic by keyword.
type template struct {
	keywords  []string
	questions []Question
}

// lookupTemplate picks the first bank whose keyword appears in the topic,
// falling back to a generic study-skills bank so generation never fails.
func lookupTemplate(topic string) template {
	lowered := strings.ToLower(topic)
	for _, t := range templates {
		for _, kw := range t.keywords {
			if strings.Contains(lowered, kw) {
				return t
			}
		}
	}
	return genericTemplate
}

var templates = []template{
	{
		keywords: []string{"calculus", "derivative", "integral"},
		questions: []Question{
			{
				Text:    "What is the derivative of x^2?",
				Options: []string{"2x", "x", "x^2", "2"},
				Answer:  0,
			},
			{
				Text:    "What is the integral of 2x dx?",
				Options: []string{"x^2 + C", "2x^2 + C", "x + C", "2 + C"},
				Answer:  0,
			},
			{
				Text:    "What does the derivative of a function represent?",
				Options: []string{"Rate of change", "Area under the curve", "Maximum value", "Y-intercept"},
				Answer:  0,
			},
			{
				Text:    "What is the derivative of sin(x)?",
				Options: []string{"cos(x)", "-cos(x)", "-sin(x)", "tan(x)"},
				Answer:  0,
			},
			{
				Text:    "At a local maximum of a differentiable function, the derivative is:",
				Options: []string{"Zero", "Positive", "Negative", "Undefined"},
				Answer:  0,
			},
		},
	},
	{
		keywords: []string{"algebra", "equation", "polynomial"},
		questions: []Question{
			{
				Text:    "Solve for x: 2x + 6 = 14",
				Options: []string{"4", "10", "7", "3"},
				Answer:  0,
			},
			{
				Text:    "What is the degree of the polynomial 3x^4 + 2x - 1?",
				Options: []string{"4", "3", "2", "1"},
				Answer:  0,
			},
			{
				Text:    "Factor x^2 - 9:",
				Options: []string{"(x-3)(x+3)", "(x-9)(x+1)", "(x-3)^2", "(x+3)^2"},
				Answer:  0,
			},
			{
				Text:    "What is the slope of the line y = 5x - 2?",
				Options: []string{"5", "-2", "2", "-5"},
				Answer:  0,
			},
			{
				Text:    "If f(x) = x^2 + 1, what is f(3)?",
				Options: []string{"10", "9", "7", "16"},
				Answer:  0,
			},
		},
	},
	{
		keywords: []string{"momentum", "force", "newton", "motion", "physics"},
		questions: []Question{
			{
				Text:    "What is the formula for momentum?",
				Options: []string{"p = mv", "p = ma", "p = mgh", "p = mv^2"},
				Answer:  0,
			},
			{
				Text:    "Newton's second law states that force equals:",
				Options: []string{"Mass times acceleration", "Mass times velocity", "Weight times height", "Pressure times area"},
				Answer:  0,
			},
			{
				Text:    "Which quantity is conserved in an isolated collision?",
				Options: []string{"Momentum", "Velocity", "Acceleration", "Force"},
				Answer:  0,
			},
			{
				Text:    "The SI unit of force is the:",
				Options: []string{"Newton", "Joule", "Watt", "Pascal"},
				Answer:  0,
			},
			{
				Text:    "An object in motion stays in motion unless acted on by:",
				Options: []string{"An external force", "Gravity alone", "Friction alone", "Its own inertia"},
				Answer:  0,
			},
		},
	},
	{
		keywords: []string{"bond", "chemistry", "molecule", "reaction"},
		questions: []Question{
			{
				Text:    "What type of bond involves the sharing of electron pairs?",
				Options: []string{"Covalent", "Ionic", "Metallic", "Hydrogen"},
				Answer:  0,
			},
			{
				Text:    "Which bond forms between a metal and a non-metal?",
				Options: []string{"Ionic", "Covalent", "Metallic", "Van der Waals"},
				Answer:  0,
			},
			{
				Text:    "What is the chemical formula for water?",
				Options: []string{"H2O", "CO2", "NaCl", "O2"},
				Answer:  0,
			},
			{
				Text:    "The pH of a neutral solution at 25C is:",
				Options: []string{"7", "0", "14", "1"},
				Answer:  0,
			},
			{
				Text:    "Which particle determines the element's atomic number?",
				Options: []string{"Proton", "Neutron", "Electron", "Photon"},
				Answer:  0,
			},
		},
	},
	{
		keywords: []string{"complexity", "algorithm", "programming", "data structure"},
		questions: []Question{
			{
				Text:    "What is the time complexity of binary search?",
				Options: []string{"O(log n)", "O(n)", "O(n^2)", "O(1)"},
				Answer:  0,
			},
			{
				Text:    "Which data structure uses FIFO ordering?",
				Options: []string{"Queue", "Stack", "Tree", "Graph"},
				Answer:  0,
			},
			{
				Text:    "What is the worst-case complexity of quicksort?",
				Options: []string{"O(n^2)", "O(n log n)", "O(n)", "O(log n)"},
				Answer:  0,
			},
			{
				Text:    "A hash table offers average-case lookup in:",
				Options: []string{"O(1)", "O(log n)", "O(n)", "O(n log n)"},
				Answer:  0,
			},
			{
				Text:    "Which traversal visits a binary search tree in sorted order?",
				Options: []string{"In-order", "Pre-order", "Post-order", "Level-order"},
				Answer:  0,
			},
		},
	},
	{
		keywords: []string{"cell", "biology", "dna", "organism"},
		questions: []Question{
			{
				Text:    "What is the powerhouse of the cell?",
				Options: []string{"Mitochondria", "Nucleus", "Ribosome", "Golgi apparatus"},
				Answer:  0,
			},
			{
				Text:    "Which molecule carries genetic information?",
				Options: []string{"DNA", "ATP", "RNA polymerase", "Glucose"},
				Answer:  0,
			},
			{
				Text:    "Which organelle synthesizes proteins?",
				Options: []string{"Ribosome", "Lysosome", "Vacuole", "Chloroplast"},
				Answer:  0,
			},
			{
				Text:    "Plant cells differ from animal cells because they have:",
				Options: []string{"A cell wall", "A nucleus", "Mitochondria", "A cell membrane"},
				Answer:  0,
			},
			{
				Text:    "Photosynthesis takes place in the:",
				Options: []string{"Chloroplast", "Mitochondria", "Nucleus", "Cytoplasm"},
				Answer:  0,
			},
		},
	},
	{
		keywords: []string{"shakespeare", "literature", "poetry", "english"},
		questions: []Question{
			{
				Text:    "Who wrote 'Romeo and Juliet'?",
				Options: []string{"William Shakespeare", "Charles Dickens", "Jane Austen", "Mark Twain"},
				Answer:  0,
			},
			{
				Text:    "A fourteen-line poem is called a:",
				Options: []string{"Sonnet", "Haiku", "Limerick", "Ballad"},
				Answer:  0,
			},
			{
				Text:    "In which play does the line 'To be, or not to be' appear?",
				Options: []string{"Hamlet", "Macbeth", "Othello", "King Lear"},
				Answer:  0,
			},
			{
				Text:    "A comparison using 'like' or 'as' is a:",
				Options: []string{"Simile", "Metaphor", "Hyperbole", "Alliteration"},
				Answer:  0,
			},
			{
				Text:    "The main character opposing the protagonist is the:",
				Options: []string{"Antagonist", "Narrator", "Foil", "Deuteragonist"},
				Answer:  0,
			},
		},
	},
}

var genericTemplate = template{
	questions: []Question{
		{
			Text:    "Which study technique involves recalling material without looking at notes?",
			Options: []string{"Active recall", "Highlighting", "Rereading", "Summarizing"},
			Answer:  0,
		},
		{
			Text:    "Spacing study sessions over time is known as:",
			Options: []string{"Spaced repetition", "Cramming", "Blocking", "Chunking"},
			Answer:  0,
		},
		{
			Text:    "Explaining a concept in simple terms to test understanding is the:",
			Options: []string{"Feynman technique", "Pomodoro technique", "Cornell method", "SQ3R method"},
			Answer:  0,
		},
		{
			Text:    "Breaking work into timed focus intervals is the:",
			Options: []string{"Pomodoro technique", "Feynman technique", "Leitner system", "Mind mapping"},
			Answer:  0,
		},
		{
			Text:    "Which habit most improves long-term retention?",
			Options: []string{"Regular self-testing", "Passive listening", "Copying notes verbatim", "Studying only before exams"},
			Answer:  0,
		},
	},
}
