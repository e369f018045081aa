package ai

import "strings"

// RetryInstruction is appended to the original prompt on every retry. It is
// never stacked: attempt n always sends base prompt + one instruction.
const RetryInstruction = "IMPORTANT: Your previous response was not valid JSON or did not match the required structure. " +
	"Please respond ONLY with the correct JSON object as specified above, no extra text."

const claimPromptHead = `You are an AI insurance claims analyst with expertise in fraud detection, policy compliance, and risk assessment. Analyze the following insurance claim and provide a comprehensive decision.

**IMPORTANT:**
- If CLAIM DETAILS is empty or missing, respond ONLY with the JSON object below, using:
    - "decision": "REVIEW_REQUIRED"
    - "reasoning": "No claim details or supporting documentation were provided for analysis. This case requires immediate human expert intervention to gather necessary data."
    - "confidence": 50
    - "riskScore": "HIGH"
    - "flags": ["MANUAL_REVIEW_REQUIRED"]
- Do not include any markdown formatting or code blocks.
- Ensure all strings are properly quoted.
- Use exact flag names from the list below.
- Keep reasoning concise but informative.
- Base confidence on strength of evidence and clarity of case.

**CLAIM DETAILS:**
`

const claimPromptTail = `

**ANALYSIS REQUIREMENTS:**
Evaluate the claim based on:
1. Claim legitimacy and supporting documentation
2. Fraud indicators and red flags
3. Policy compliance and coverage validation
4. Claim amount reasonableness
5. Supporting evidence quality and consistency

**OUTPUT FORMAT - RESPOND WITH EXACTLY THIS JSON STRUCTURE:**
{
"decision": "[APPROVED|REJECTED|REVIEW_REQUIRED]",
"reasoning": "[2-3 sentence explanation of your decision, including key factors that influenced the determination]",
"confidence": [number between 0-100 representing confidence in decision],
"riskScore": "[LOW|MEDIUM|HIGH]",
"flags": ["FLAG1", "FLAG2", "FLAG3"]
}

**DECISION CRITERIA:**
- APPROVED: Clear legitimate claim with adequate documentation and low fraud risk
- REJECTED: Clear fraud indicators or policy violations that warrant denial
- REVIEW_REQUIRED: Borderline case needing human expert review

**CONFIDENCE SCORING:**
- 90-100: Very confident (clear-cut case)
- 75-89: Confident (strong indicators)
- 60-74: Moderate confidence (some uncertainty)
- Below 60: Low confidence (significant uncertainty)

**RISK SCORE GUIDELINES:**
- LOW: Routine claim with standard risk factors
- MEDIUM: Some elevated risk factors requiring attention
- HIGH: Multiple risk factors or fraud indicators present

**COMMON FLAGS TO USE:**
Fraud-related: "FRAUD_INDICATORS", "PATTERN_SUSPICIOUS", "DOCUMENTATION_INCONSISTENT"
Processing: "MANUAL_REVIEW_REQUIRED", "STANDARD_PROCESSING", "EXPEDITED_REVIEW"
Evidence: "POLICE_REPORT_AVAILABLE", "MEDICAL_VERIFIED", "WITNESS_AVAILABLE", "VIDEO_EVIDENCE"
Risk: "HIGH_VALUE_CLAIM", "REPEAT_CLAIMANT", "POLICY_RECENT"
Verification: "THIRD_PARTY_LIABILITY", "FIRE_DEPT_VERIFIED", "COVERAGE_ADEQUATE"
`

// Decision values and risk levels the prompt allows.
const (
	DecisionApproved       = "APPROVED"
	DecisionRejected       = "REJECTED"
	DecisionReviewRequired = "REVIEW_REQUIRED"

	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// BuildClaimPrompt embeds details into the analysis template.
func BuildClaimPrompt(details string) string {
	var b strings.Builder
	b.Grow(len(claimPromptHead) + len(details) + len(claimPromptTail))
	b.WriteString(claimPromptHead)
	b.WriteString(details)
	b.WriteString(claimPromptTail)
	return b.String()
}

// RetryPrompt is the prompt sent on attempts after the first.
func RetryPrompt(base string) string {
	return base + "\n" + RetryInstruction
}

// NoFilesDecision is returned for cases with nothing to analyze. The model is
// not called for it.
func NoFilesDecision() map[string]any {
	return map[string]any{
		"decision":   DecisionReviewRequired,
		"reasoning":  "No files were found for this case, so there is nothing to analyze. A reviewer must gather supporting documentation.",
		"confidence": 50,
		"riskScore":  RiskHigh,
		"flags":      []string{"NO_FILES_FOUND", "MANUAL_REVIEW_REQUIRED"},
	}
}
