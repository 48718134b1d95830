package submission

import "strings"

// LowConfidenceThreshold is the percentage below which the advisory falls
// back to a generic consult string instead of the remedy table.
const LowConfidenceThreshold = 20.0

const (
	imageConsultNote   = "Low confidence on image, consult your doctor for appropriate treatment."
	symptomConsultNote = "Low confidence on symptom prediction, consult your doctor for appropriate treatment."
)

// Medication is one over-the-counter remedy suggestion.
type Medication struct {
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
}

// imageMedications is keyed by the lowercased condition label of the image
// models. Spellings follow the model class names, underscores included.
var imageMedications = map[string]string{
	"eczema":                       "Topical corticosteroids and moisturizers (e.g., Hydrocortisone cream, CeraVe).",
	"benign keratosis like lesion": "Cryotherapy or salicylic acid for removal; monitor regularly.",
	"mouth_ulcers":                 "Topical benzocaine gel and vitamin B12 supplements.",
	"hypodontia":                   "Dental prosthetics consultation; temporary use of dental wax for comfort.",
}

// symptomMedications is keyed by the symptom model's disease labels. Key
// spellings follow the training data, trailing spaces included.
var symptomMedications = map[string][]Medication{
	"Fungal infection":             {{"Clotrimazole", "Antifungal cream"}, {"Fluconazole", "Oral antifungal"}},
	"Allergy":                      {{"Cetirizine", "Allergy relief"}, {"Loratadine", "Reduce allergic reaction"}},
	"GERD":                         {{"Omeprazole", "Reduce stomach acid"}, {"Ranitidine", "Relieve heartburn"}},
	"Chronic cholestasis":          {{"Ursodeoxycholic acid", "Improve bile flow"}},
	"Drug Reaction":                {{"Antihistamines", "Counter allergic response"}, {"Topical steroids", "Reduce inflammation"}},
	"Peptic ulcer diseae":          {{"Pantoprazole", "Reduce stomach acid"}, {"Antacids", "Neutralize acid"}},
	"AIDS":                         {{"Antiretroviral Therapy (ART)", "Control HIV"}},
	"Diabetes ":                    {{"Metformin", "Control blood sugar"}, {"Insulin", "Regulate glucose"}},
	"Gastroenteritis":              {{"ORS", "Prevent dehydration"}, {"Loperamide", "Control diarrhea"}},
	"Bronchial Asthma":             {{"Salbutamol", "Relieve breathing"}, {"Steroids inhaler", "Reduce inflammation"}},
	"Hypertension ":                {{"Amlodipine", "Lower blood pressure"}, {"Losartan", "Relax blood vessels"}},
	"Migraine":                     {{"Sumatriptan", "Relieve migraine"}, {"Ibuprofen", "Pain relief"}},
	"Cervical spondylosis":         {{"NSAIDs", "Reduce pain/inflammation"}, {"Physiotherapy", "Muscle strengthening"}},
	"Paralysis (brain hemorrhage)": {{"Blood pressure control meds", "Prevent further damage"}, {"Physiotherapy", "Rehabilitation"}},
	"Jaundice":                     {{"Hepatoprotective agents", "Liver support"}, {"Glucose & fluids", "Hydration"}},
	"Malaria":                      {{"Chloroquine", "Kill malaria parasites"}, {"Paracetamol", "Reduce fever"}},
	"Chicken pox":                  {{"Calamine lotion", "Soothe skin"}, {"Acyclovir", "Antiviral"}},
	"Dengue":                       {{"Paracetamol", "Fever reduction"}, {"ORS", "Prevent dehydration"}},
	"Typhoid":                      {{"Ciprofloxacin", "Antibiotic"}, {"ORS", "Hydration"}},
	"hepatitis A":                  {{"Rest & hydration", "Liver recovery"}},
	"Hepatitis B":                  {{"Antivirals", "Reduce liver inflammation"}},
	"Hepatitis C":                  {{"Direct-acting antivirals", "Virus elimination"}},
	"Hepatitis D":                  {{"Interferon alfa", "Reduce viral load"}},
	"Hepatitis E":                  {{"Supportive care", "Liver healing"}},
	"Alcoholic hepatitis":          {{"Steroids", "Liver inflammation"}, {"Abstinence", "Avoid alcohol"}},
	"Tuberculosis":                 {{"Rifampin + Isoniazid", "Kill TB bacteria"}},
	"Common Cold":                  {{"Paracetamol", "Fever"}, {"Decongestants", "Clear nose"}},
	"Pneumonia":                    {{"Azithromycin", "Antibiotic"}, {"Cough syrup", "Soothe throat"}},
	"Dimorphic hemmorhoids(piles)": {{"Sitz bath", "Pain relief"}, {"Topical ointments", "Shrink swelling"}},
	"Heart attack":                 {{"Aspirin", "Prevent clot"}, {"Nitroglycerin", "Relieve chest pain"}},
	"Varicose veins":               {{"Compression stockings", "Improve circulation"}, {"Pain relievers", "Relieve pain"}},
	"Hypothyroidism":               {{"Levothyroxine", "Thyroid hormone replacement"}},
	"Hyperthyroidism":              {{"Methimazole", "Suppress thyroid hormone"}},
	"Hypoglycemia":                 {{"Glucose tablets", "Raise blood sugar"}, {"Sugary snacks", "Immediate sugar"}},
	"Osteoarthristis":              {{"NSAIDs", "Pain relief"}, {"Physiotherapy", "Joint mobility"}},
	"Arthritis":                    {{"DMARDs", "Slow disease"}, {"NSAIDs", "Pain/inflammation"}},
	"(vertigo) Paroymsal  Positional Vertigo": {{"Meclizine", "Reduce dizziness"}, {"Vestibular rehab", "Balance training"}},
	"Acne":                    {{"Benzoyl peroxide", "Reduce acne"}, {"Salicylic acid", "Clean pores"}},
	"Urinary tract infection": {{"Nitrofurantoin", "Kill bacteria"}, {"Cranberry juice", "Prevention"}},
	"Psoriasis":               {{"Topical corticosteroids", "Reduce skin scaling"}, {"Moisturizers", "Soothe skin"}},
	"Impetigo":                {{"Mupirocin", "Topical antibiotic"}, {"Oral antibiotics", "Severe cases"}},
}

// ImageAdvisory returns the remedy suggestion for an image prediction, or the
// generic consult string when confidence is low or the label is unknown.
func ImageAdvisory(label string, confidence float64) string {
	if confidence < LowConfidenceThreshold {
		return imageConsultNote
	}
	if med, ok := imageMedications[strings.ToLower(label)]; ok {
		return med
	}
	return imageConsultNote
}

// SymptomAdvisory returns the remedy list for the top predicted disease. A
// low-confidence top prediction yields a consult note and no medications.
func SymptomAdvisory(predictions []Prediction) ([]Medication, string) {
	if len(predictions) == 0 {
		return nil, symptomConsultNote
	}
	top := predictions[0]
	if top.Confidence < LowConfidenceThreshold {
		return nil, symptomConsultNote
	}
	return symptomMedications[top.Disease], ""
}

// validFeedbackLabels enumerates the retraining label corrections per domain.
var validFeedbackLabels = map[string][]string{
	"skin_diseases": {"benign_keratosis_like_lesions", "eczema"},
	"oral_disorder": {"hypodontia", "mouth_ulcer"},
}

// ValidFeedback reports whether a feedback (domain, label) pair names a real
// class of the corresponding image model.
func ValidFeedback(domain, label string) bool {
	labels, ok := validFeedbackLabels[domain]
	if !ok {
		return false
	}
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
