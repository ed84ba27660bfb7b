package catalog

import "github.com/modelscout/modelscout/internal/models"

// DefaultModels returns the built-in curated catalog. Sizes are approximate
// download sizes; accuracies are the headline numbers reported by each
// model's authors on their standard benchmark, so they are comparable within
// a category but not across categories.
func DefaultModels() []models.CatalogModel {
	return []models.CatalogModel{
		{
			Name:          "distilbert-base-uncased-finetuned-sst-2",
			Category:      "natural_language_processing",
			Subcategories: []string{"sentiment_analysis", "text_classification"},
			SizeMB:        268,
			Accuracy:      0.91,
			License:       "apache-2.0",
		},
		{
			Name:          "tinybert-6l-768d",
			Category:      "natural_language_processing",
			Subcategories: []string{"text_classification"},
			SizeMB:        55,
			Accuracy:      0.87,
			License:       "apache-2.0",
		},
		{
			Name:          "bart-large-cnn",
			Category:      "natural_language_processing",
			Subcategories: []string{"summarization"},
			SizeMB:        1630,
			Accuracy:      0.88,
			License:       "mit",
		},
		{
			Name:          "distilbart-cnn-12-6",
			Category:      "natural_language_processing",
			Subcategories: []string{"summarization"},
			SizeMB:        1220,
			Accuracy:      0.86,
			License:       "apache-2.0",
		},
		{
			Name:          "roberta-base-squad2",
			Category:      "natural_language_processing",
			Subcategories: []string{"question_answering"},
			SizeMB:        496,
			Accuracy:      0.83,
			License:       "cc-by-4.0",
		},
		{
			Name:          "bert-base-ner",
			Category:      "natural_language_processing",
			Subcategories: []string{"named_entity_recognition"},
			SizeMB:        433,
			Accuracy:      0.91,
			License:       "mit",
		},
		{
			Name:          "mobilenet-v3-small",
			Category:      "computer_vision",
			Subcategories: []string{"image_classification"},
			SizeMB:        10,
			Accuracy:      0.68,
			License:       "apache-2.0",
		},
		{
			Name:          "efficientnet-b0",
			Category:      "computer_vision",
			Subcategories: []string{"image_classification"},
			SizeMB:        21,
			Accuracy:      0.77,
			License:       "apache-2.0",
		},
		{
			Name:          "vit-base-patch16-224",
			Category:      "computer_vision",
			Subcategories: []string{"image_classification"},
			SizeMB:        346,
			Accuracy:      0.81,
			License:       "apache-2.0",
		},
		{
			Name:          "yolov8n",
			Category:      "computer_vision",
			Subcategories: []string{"object_detection"},
			SizeMB:        6,
			Accuracy:      0.53,
			License:       "agpl-3.0",
		},
		{
			Name:          "yolov8m",
			Category:      "computer_vision",
			Subcategories: []string{"object_detection"},
			SizeMB:        52,
			Accuracy:      0.67,
			License:       "agpl-3.0",
		},
		{
			Name:          "segformer-b0-ade",
			Category:      "computer_vision",
			Subcategories: []string{"image_segmentation"},
			SizeMB:        15,
			Accuracy:      0.72,
			License:       "other",
		},
		{
			Name:          "trocr-base-printed",
			Category:      "computer_vision",
			Subcategories: []string{"ocr"},
			SizeMB:        1340,
			Accuracy:      0.89,
			License:       "mit",
		},
		{
			Name:          "xgboost-tabular",
			Category:      "tabular_analysis",
			Subcategories: []string{"tabular_classification", "regression"},
			SizeMB:        2,
			Accuracy:      0.85,
			License:       "apache-2.0",
		},
		{
			Name:          "lightgbm-tabular",
			Category:      "tabular_analysis",
			Subcategories: []string{"tabular_classification", "regression", "anomaly_detection"},
			SizeMB:        3,
			Accuracy:      0.86,
			License:       "mit",
		},
		{
			Name:          "whisper-tiny",
			Category:      "audio_speech",
			Subcategories: []string{"speech_recognition"},
			SizeMB:        75,
			Accuracy:      0.80,
			License:       "mit",
		},
		{
			Name:          "whisper-base",
			Category:      "audio_speech",
			Subcategories: []string{"speech_recognition"},
			SizeMB:        145,
			Accuracy:      0.85,
			License:       "mit",
		},
		{
			Name:          "ast-audioset",
			Category:      "audio_speech",
			Subcategories: []string{"audio_classification"},
			SizeMB:        346,
			Accuracy:      0.79,
			License:       "bsd-3-clause",
		},
		{
			Name:          "speecht5-tts",
			Category:      "audio_speech",
			Subcategories: []string{"text_to_speech"},
			SizeMB:        585,
			Accuracy:      0.81,
			License:       "mit",
		},
		{
			Name:          "stable-diffusion-2-1",
			Category:      "generative",
			Subcategories: []string{"image_generation"},
			SizeMB:        5210,
			Accuracy:      0.78,
			License:       "openrail",
		},
		{
			Name:          "phi-2",
			Category:      "generative",
			Subcategories: []string{"text_generation"},
			SizeMB:        5550,
			Accuracy:      0.76,
			License:       "mit",
		},
		{
			Name:          "tinyllama-1.1b",
			Category:      "generative",
			Subcategories: []string{"text_generation"},
			SizeMB:        2200,
			Accuracy:      0.71,
			License:       "apache-2.0",
		},
	}
}
