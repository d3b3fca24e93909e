package mockapi

import (
	"math"
	"slices"
	"strings"

	"github.com/lborres/medassist/core"
)

// condition is one entry of the predictor's knowledge table.
type condition struct {
	name            string
	symptoms        []string
	recommendations []string
}

var conditions = []condition{
	{
		name:     "Influenza",
		symptoms: []string{"fever", "cough", "fatigue", "body aches", "chills", "headache", "sore throat"},
		recommendations: []string{
			"Rest and stay hydrated",
			"Over-the-counter fever reducers may help",
			"See a doctor if symptoms last more than a week",
		},
	},
	{
		name:     "Common Cold",
		symptoms: []string{"runny nose", "sneezing", "sore throat", "cough", "congestion"},
		recommendations: []string{
			"Rest and drink warm fluids",
			"Saline nasal spray can relieve congestion",
		},
	},
	{
		name:     "COVID-19",
		symptoms: []string{"fever", "cough", "loss of taste", "loss of smell", "shortness of breath", "fatigue", "sore throat", "headache"},
		recommendations: []string{
			"Take a COVID-19 test",
			"Isolate until you test negative",
			"Seek care if breathing becomes difficult",
		},
	},
	{
		name:     "Migraine",
		symptoms: []string{"headache", "nausea", "sensitivity to light", "dizziness", "blurred vision"},
		recommendations: []string{
			"Rest in a dark, quiet room",
			"Keep a headache diary to find triggers",
		},
	},
	{
		name:     "Gastroenteritis",
		symptoms: []string{"nausea", "vomiting", "diarrhea", "abdominal pain", "fever"},
		recommendations: []string{
			"Drink oral rehydration solution",
			"Eat bland food once vomiting stops",
		},
	},
	{
		name:     "Allergic Rhinitis",
		symptoms: []string{"sneezing", "itchy eyes", "runny nose", "congestion", "watery eyes"},
		recommendations: []string{
			"Avoid known allergens",
			"Antihistamines can relieve symptoms",
		},
	},
}

const (
	unknownDiagnosis = "Unknown condition"
	consultAdvice    = "Consult a healthcare professional for an accurate diagnosis"
	severeAdvice     = "Seek medical attention promptly: severe symptoms reported"
)

func severityWeight(s core.Severity) float64 {
	switch s {
	case core.SeverityMild:
		return 1
	case core.SeveritySevere:
		return 3
	default:
		return 2
	}
}

func normalizeSymptom(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Predictor is a deterministic stand-in for the inference model. Each
// condition scores by the severity-weighted share of the reported symptoms
// it explains plus how much of its own symptom list is covered.
type Predictor struct{}

func (Predictor) Predict(symptoms []core.SymptomInput) core.DiagnosisResult {
	names := make([]string, 0, len(symptoms))
	total := 0.0
	severe := false
	for _, s := range symptoms {
		names = append(names, normalizeSymptom(s.Name))
		total += severityWeight(s.Severity)
		if s.Severity == core.SeveritySevere {
			severe = true
		}
	}

	best, bestScore := -1, 0.0
	for i, c := range conditions {
		matchedWeight, matched := 0.0, 0
		for j, name := range names {
			if slices.Contains(c.symptoms, name) {
				matchedWeight += severityWeight(symptoms[j].Severity)
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		score := 0.7*(matchedWeight/total) + 0.3*(float64(matched)/float64(len(c.symptoms)))
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	result := core.DiagnosisResult{
		PrimaryDiagnosis: unknownDiagnosis,
		Symptoms:         names,
		Recommendations:  []string{consultAdvice},
	}
	if best >= 0 {
		c := conditions[best]
		result.PrimaryDiagnosis = c.name
		result.Confidence = math.Round(bestScore*100) / 100
		result.Recommendations = append(append([]string{}, c.recommendations...), consultAdvice)
	}
	if severe {
		result.Recommendations = append([]string{severeAdvice}, result.Recommendations...)
	}
	return result
}

// Extract finds known symptom phrases in free text, in table order.
func (Predictor) Extract(text string) []string {
	text = normalizeSymptom(text)
	var found []string
	for _, c := range conditions {
		for _, s := range c.symptoms {
			if strings.Contains(text, s) && !slices.Contains(found, s) {
				found = append(found, s)
			}
		}
	}
	return found
}
