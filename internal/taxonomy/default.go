package taxonomy

// Default returns the built-in task taxonomy. Category order is the priority
// fallback ordering: most general-purpose task families first.
func Default() *Taxonomy {
	t, err := New(defaultCategories(), defaultPriority())
	if err != nil {
		// The built-in data is validated by tests; a failure here is a bug.
		panic(err)
	}
	return t
}

func defaultPriority() []string {
	return []string{
		"natural_language_processing",
		"computer_vision",
		"tabular_analysis",
		"audio_speech",
		"generative",
	}
}

func defaultCategories() map[string]Category {
	return map[string]Category{
		"natural_language_processing": {
			Label: "Natural Language Processing",
			Subcategories: map[string]Subcategory{
				"text_classification": {
					Label: "Text Classification",
					Examples: []string{
						"detect spam emails",
						"classify customer support tickets by topic",
						"flag toxic comments in a forum",
						"sort news articles into sections",
						"identify the language of a document",
					},
					Keywords: []string{"spam", "classify text", "label documents", "toxic", "moderation", "categorize messages"},
				},
				"sentiment_analysis": {
					Label: "Sentiment Analysis",
					Examples: []string{
						"analyze sentiment of product reviews",
						"measure customer satisfaction from survey answers",
						"track brand sentiment on social media",
						"detect negative feedback in app store reviews",
					},
					Keywords: []string{"sentiment", "opinion", "positive negative", "reviews", "emotion"},
				},
				"summarization": {
					Label: "Summarization",
					Examples: []string{
						"summarize long legal contracts",
						"generate short abstracts for research papers",
						"condense meeting transcripts into action items",
					},
					Keywords: []string{"summarize", "abstract", "condense", "tl;dr", "shorten"},
				},
				"question_answering": {
					Label: "Question Answering",
					Examples: []string{
						"answer questions about company documentation",
						"build a FAQ bot over a knowledge base",
						"extract answers from product manuals",
					},
					Keywords: []string{"question answering", "faq", "chatbot", "answer from documents"},
				},
				"named_entity_recognition": {
					Label: "Named Entity Recognition",
					Examples: []string{
						"extract person and company names from news text",
						"find dates and amounts in invoices",
						"tag medication names in clinical notes",
					},
					Keywords: []string{"entity", "extract names", "ner", "tag mentions"},
				},
			},
		},
		"computer_vision": {
			Label: "Computer Vision",
			Subcategories: map[string]Subcategory{
				"image_classification": {
					Label: "Image Classification",
					Examples: []string{
						"classify dog breeds in photos",
						"identify plant species from leaf pictures",
						"sort product photos by category",
						"recognize handwritten digits",
						"detect whether an image contains a defect",
					},
					Keywords: []string{"image classification", "recognize photos", "label images", "identify pictures"},
				},
				"object_detection": {
					Label: "Object Detection",
					Examples: []string{
						"detect pedestrians in street camera footage",
						"count cars in parking lot images",
						"locate faces in group photos",
						"find logos in video frames",
					},
					Keywords: []string{"object detection", "bounding box", "locate objects", "count objects", "faces"},
				},
				"image_segmentation": {
					Label: "Image Segmentation",
					Examples: []string{
						"segment tumors in medical scans",
						"outline buildings in satellite imagery",
						"separate foreground subjects from background",
					},
					Keywords: []string{"segmentation", "mask", "pixel-level", "outline regions"},
				},
				"ocr": {
					Label: "Optical Character Recognition",
					Examples: []string{
						"read text from scanned receipts",
						"digitize handwritten forms",
						"extract license plate numbers from photos",
					},
					Keywords: []string{"ocr", "read text from image", "scanned documents", "license plate"},
				},
			},
		},
		"tabular_analysis": {
			Label: "Tabular & Data Analysis",
			Subcategories: map[string]Subcategory{
				"tabular_classification": {
					Label: "Tabular Classification",
					Examples: []string{
						"predict customer churn from account data",
						"score loan applications for default risk",
						"classify transactions as fraudulent",
					},
					Keywords: []string{"churn", "fraud", "risk scoring", "tabular", "structured data"},
				},
				"regression": {
					Label: "Regression & Forecasting",
					Examples: []string{
						"forecast monthly sales from historical data",
						"predict house prices from listing features",
						"estimate delivery times from order attributes",
					},
					Keywords: []string{"forecast", "predict value", "regression", "time series", "estimate"},
				},
				"anomaly_detection": {
					Label: "Anomaly Detection",
					Examples: []string{
						"detect unusual spikes in server metrics",
						"find outliers in sensor readings",
						"spot anomalous spending patterns",
					},
					Keywords: []string{"anomaly", "outlier", "unusual", "spike", "monitoring"},
				},
			},
		},
		"audio_speech": {
			Label: "Audio & Speech",
			Subcategories: map[string]Subcategory{
				"speech_recognition": {
					Label: "Speech Recognition",
					Examples: []string{
						"transcribe podcast episodes to text",
						"convert voice memos into notes",
						"caption videos automatically",
					},
					Keywords: []string{"transcribe", "speech to text", "voice", "caption", "dictation"},
				},
				"audio_classification": {
					Label: "Audio Classification",
					Examples: []string{
						"identify bird species from their songs",
						"detect glass breaking in security audio",
						"classify music tracks by genre",
					},
					Keywords: []string{"audio classification", "sound detection", "music genre", "acoustic"},
				},
				"text_to_speech": {
					Label: "Text to Speech",
					Examples: []string{
						"read articles aloud in a natural voice",
						"generate voiceovers for tutorial videos",
					},
					Keywords: []string{"text to speech", "voiceover", "synthesize speech", "read aloud"},
				},
			},
		},
		"generative": {
			Label: "Generative AI",
			Subcategories: map[string]Subcategory{
				"text_generation": {
					Label: "Text Generation",
					Examples: []string{
						"write product descriptions from bullet points",
						"draft email replies automatically",
						"generate code from natural language comments",
					},
					Keywords: []string{"generate text", "write", "draft", "autocomplete", "code generation"},
				},
				"image_generation": {
					Label: "Image Generation",
					Examples: []string{
						"create illustrations from text prompts",
						"generate product mockup images",
						"produce concept art variations",
					},
					Keywords: []string{"generate images", "text to image", "illustration", "art"},
				},
			},
		},
	}
}
