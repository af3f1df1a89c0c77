package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/medreport-ai/simplifier/internal/report"
)

// Prompt builders for the three oracle round-trips. The exact output shapes
// here are load-bearing: extraction feeds AdmitRecords, validation feeds the
// local confidence recompute, and summarization feeds SummaryResult.

func buildExtractionPrompt(rawText string) string {
	var b strings.Builder
	b.WriteString("You are a medical data extraction expert. Extract test results from the report text below and return them in EXACT JSON format.\n\n")
	b.WriteString("INPUT TEXT:\n")
	b.WriteString(rawText)
	b.WriteString("\n\nEXTRACT ONLY tests mentioned in the text above. For each test provide:\n")
	b.WriteString("1. Standardized medical name (full names, not abbreviations: \"Hemoglobin\", not \"Hb\")\n")
	b.WriteString("2. Numeric value as a float (convert obvious OCR substitutions: O->0, l->1, I->1; remove thousands separators)\n")
	b.WriteString("3. Standardized unit (mg/dL, g/dL, /uL, U/L, mEq/L, %, mIU/L, ng/mL, ...)\n")
	b.WriteString("4. Status \"low\", \"normal\", or \"high\" against the reference range\n")
	b.WriteString("5. Reference range with numeric bounds; prefer ranges stated in the text, otherwise standard medical ranges\n\n")
	b.WriteString("Common tests for guidance, NOT an exhaustive list — any medically plausible test is acceptable:\n")
	b.WriteString("blood counts (WBC, RBC, Hemoglobin, Hematocrit, Platelets), metabolic (Glucose, Creatinine, BUN, electrolytes), ")
	b.WriteString("liver (ALT, AST, ALP, Bilirubin, Albumin), cardiac (Troponin, CK-MB, BNP), lipids, thyroid (TSH, T3, T4), inflammatory (CRP, ESR).\n\n")
	b.WriteString("REQUIRED JSON FORMAT:\n")
	b.WriteString(`{
  "tests": [
    {
      "name": "Standardized Test Name",
      "value": 0.0,
      "unit": "standardized_unit",
      "status": "low|normal|high",
      "ref_range": {"low": 0.0, "high": 0.0}
    }
  ],
  "normalization_confidence": 0.0
}`)
	b.WriteString("\n\nRULES:\n")
	b.WriteString("- All numeric values and reference bounds must be JSON numbers, not strings.\n")
	b.WriteString("- normalization_confidence is your overall confidence in this extraction, 0.0 to 1.0.\n")
	b.WriteString("- ONLY include tests with complete information: name, value, unit, status, and both reference bounds.\n")
	b.WriteString("- SKIP incomplete entries, headers, or partial data entirely. Omitting a test is always better than guessing a field.\n")
	b.WriteString("- Never invent a test that is not in the input text.")
	return b.String()
}

func buildValidationPrompt(originalText string, tests []report.TestRecord) string {
	testsJSON := mustJSON(tests)

	var b strings.Builder
	b.WriteString("You are a medical data validation expert. Verify the extracted test results against the original text and score the evidence for each.\n\n")
	b.WriteString("VALIDATION CRITERIA:\n")
	b.WriteString("1. Does the test name (or an accepted abbreviation) appear in the original text?\n")
	b.WriteString("2. Does the numeric value appear near the test name?\n")
	b.WriteString("3. Is this a real medical test with a plausible value?\n")
	b.WriteString("4. Tolerate common OCR substitutions (O<->0, l<->1, I<->1, S<->5).\n\n")
	b.WriteString("Accepted abbreviations include: Hb/Hgb=Hemoglobin, WBC=White Blood Cells, RBC=Red Blood Cells, Plt=Platelets, ")
	b.WriteString("Gluc=Glucose, Chol=Cholesterol, Creat=Creatinine, ALT/SGPT=Alanine Aminotransferase, AST/SGOT=Aspartate Aminotransferase.\n\n")
	b.WriteString("ORIGINAL TEXT:\n")
	b.WriteString(originalText)
	b.WriteString("\n\nEXTRACTED TESTS TO VALIDATE:\n")
	b.WriteString(testsJSON)
	b.WriteString("\n\nScore each test's confidence from 0.0 to 1.0:\n")
	b.WriteString("- 1.0: perfect match with clear evidence\n")
	b.WriteString("- 0.8-0.9: good match with minor OCR errors\n")
	b.WriteString("- 0.6-0.7: reasonable match with some uncertainty\n")
	b.WriteString("- 0.3-0.5: weak evidence, possible hallucination\n")
	b.WriteString("- 0.0-0.2: no evidence, likely fabricated\n\n")
	b.WriteString("RESPONSE FORMAT:\n")
	b.WriteString(`{
  "status": "ok" or "unprocessed",
  "reason": "explanation if status is unprocessed",
  "confidence": 0.0,
  "test_validations": [
    {"test_name": "exact name from input", "is_valid": true, "confidence": 0.0, "evidence": "brief evidence found"}
  ]
}`)
	b.WriteString("\n\nDECISION RULES:\n")
	b.WriteString("- status is \"ok\" only if ALL tests have confidence >= 0.6.\n")
	b.WriteString("- status is \"unprocessed\" if ANY test has confidence < 0.4.\n")
	b.WriteString("- Overall confidence is the mean of the individual test confidences.\n")
	b.WriteString("- Include one test_validations entry per extracted test, in input order.")
	return b.String()
}

func buildSummaryPrompt(tests []report.TestRecord) string {
	testsJSON := mustJSON(tests)

	var b strings.Builder
	b.WriteString("You are a medical communication expert. Create a patient-friendly explanation of the validated test results below, without providing a medical diagnosis.\n\n")
	b.WriteString("GUIDELINES:\n")
	b.WriteString("1. Use simple, everyday language; avoid jargon.\n")
	b.WriteString("2. Be empathetic and non-alarming.\n")
	b.WriteString("3. Only reference tests present in the input; never add tests.\n")
	b.WriteString("4. Do not diagnose and do not recommend treatment; encourage discussing results with a healthcare provider.\n\n")
	b.WriteString("VALIDATED TEST RESULTS:\n")
	b.WriteString(testsJSON)
	b.WriteString("\n\nTASK:\n")
	b.WriteString("1. A brief overall summary (1-2 sentences) highlighting any abnormal findings.\n")
	b.WriteString("2. One explanation per test whose status is \"low\" or \"high\". Do not explain normal tests.\n\n")
	b.WriteString("RESPONSE FORMAT:\n")
	b.WriteString(`{
  "summary": "Brief overall summary of findings",
  "explanations": [
    {"text": "Simple explanation for patients", "test_name": "Test Name"}
  ]
}`)
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
