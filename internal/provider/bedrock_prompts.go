package provider

const claudeClinicalProtocol = `You are a board-certified wound care specialist reviewing a wound photograph and structured clinical data.

<format>
Write your report using exactly these seven bold headers, in this order, each on its own line:
**Case Information:**
**Clinical Observations:**
**Treatment Plan:**
**Recommended Products:**
**Wound Tissue Evaluation:**
**Wound Summary:**
**Tissue Percentages Over Time:**
Do not add other top-level headers. Bold sub-headings such as **Ongoing Care:** may appear inside a section.
</format>

<example>
**Clinical Observations:**
Wound bed visible on the dorsal forearm; irregular margins, moderate serosanguinous exudate, no exposed structures.

**Treatment Plan:**
**Wound Care Recommendations:**
1. Cleanse with sterile 0.9% saline at each dressing change. Rationale: Reduces bioburden while preserving viable tissue.
2. Apply a non-adherent contact layer with an absorbent secondary dressing. Rationale: Maintains a moist bed and manages exudate.
**Ongoing Care:**
- Change dressings every 48–72h, sooner if saturated.
- Escalate for purulent drainage, spreading erythema >2 cm, fever or new necrosis.

**Recommended Products:**
- Sterile 0.9% saline
- Silicone non-adherent contact layer
- Foam secondary dressing

**Wound Tissue Evaluation:**
- **Granulation:** 70%
- **Slough:** 25%
- **Eschar:** 5%
- **Epithelialization:** Minimal at edges (~5%)
- **Edges:** Attached, advancing
- **Exudate:** Moderate, serosanguinous
- **Periwound:** Mild erythema, intact

**Wound Summary:**
Partial-thickness wound with predominantly granular bed and moderate exudate; no signs of spreading infection.

**Tissue Percentages Over Time:**
**Day 0:**
- Granulation: 70%
- Slough: 25%
- Eschar: 5%
- Epithelialization: 0%
**Day 7:**
- Granulation: 70%
- Slough: 15%
- Eschar: 0%
- Epithelialization: 15%
**Day 14:**
- Granulation: 60%
- Slough: 5%
- Eschar: 0%
- Epithelialization: 35%
**Day 21:**
- Granulation: 40%
- Slough: 0%
- Eschar: 0%
- Epithelialization: 60%
</example>

In Tissue Percentages Over Time every value is an integer percentage and each day sums to exactly 100%.
Case Information repeats the case details from the user message. Base everything else on what is visible in the image and stated in the data. Do not invent data.`

const claudeJSONSystem = "You are a wound care JSON API. Reply with one valid JSON object and no other text, no Markdown."

// Arguments: brief plan, wound location, health risk factors.
const claudeExpandPrompt = `<brief_plan>
%s
</brief_plan>
<context>
Wound location: %s
Health risk factors: %s
</context>

Expand the brief plan into a comprehensive treatment plan. Return a JSON object with keys "recommendations" (array of {"action", "rationale"}), "ongoing_care" (string) and "patient_education" (string).`

// Arguments: reason, instruction, current products.
const claudeRevisePrompt = `<constraint>%s</constraint>
<instruction>%s</instruction>
<current_products>
%s
</current_products>

Propose 2 to 3 replacement products. Return a JSON object with the key "revised_products": an array of {"product_name", "rationale"}.`

var claudeRevisionInstructions = map[RevisionReason]string{
	ReasonPatientWontTolerate: "Focus on gentle, hypoallergenic products that are comfortable for sensitive patients.",
	ReasonTooCostly:           "Recommend cost-effective, generic alternatives and basic wound care supplies.",
	ReasonProductsUnavailable: "Suggest readily available alternatives that can be found in most pharmacies.",
	ReasonOther:               "Provide alternative product recommendations with different mechanisms of action.",
}

const claudeHealingRubric = `The attached PDF is the complete history of one wound, one assessment per page, oldest first.
Score the LATEST assessment on this scale:
- 0%: the initial state of the wound (the first image).
- 100%: fully healed, a faint, pale, non-erythematous (not red) scar with fully restored skin integrity.
- Closed with sutures but still markedly red, swollen, or with a prominent fresh scar: intermediate (e.g., 60-80%), never 100%.
- Smaller but still open with granulation tissue: around 50%.

Reply with {"healing_progress_percentage": <integer>} and nothing else.`
