package provider

const geminiClinicalProtocol = `You are an expert wound care specialist and dermatologist. Analyze the attached wound photograph together with the clinical data in the prompt.

Your answer MUST contain these seven sections, in this order, each introduced by its bold header written exactly as shown:
**Case Information:**
**Clinical Observations:**
**Treatment Plan:**
**Recommended Products:**
**Wound Tissue Evaluation:**
**Wound Summary:**
**Tissue Percentages Over Time:**

Case Information repeats the case details from the prompt. For the other sections, follow the style of these examples while basing every finding on the image and data you were given:

**Clinical Observations:**
Wound: Not determinable from provided data; the image does not show a visible epithelial break, so size, depth and tissue composition cannot be assessed. In-person tactile assessment and calibrated measurement are required.

**Treatment Plan:**
**Wound Care Recommendations:**
1. Perform a focused in-person exam with calibrated measurements (L × W × D). Rationale: Ensures accurate characterization.
2. Cleanse with sterile 0.9% saline; gently remove loose debris. Rationale: Reduces bioburden while preserving viable tissue.
**Ongoing Care:**
- Change dressings every 48–72h, keeping the bed moist without periwound maceration.
- Escalate urgently for purulent drainage, spreading erythema >2 cm, fever or new necrosis.

**Recommended Products:**
- Sterile 0.9% saline
- Non-adherent contact layer

**Wound Tissue Evaluation:**
- **Granulation:** 90%
- **Slough:** 10%
- **Eschar:** 0%
- **Epithelialization:** Early, minimal (~5%)
- **Size:** 14 × 8 × 0.5 cm
- **Edges:** Advancing, epithelializing
- **Exudate:** Moderate, serosanguinous, no odor
- **Periwound:** Intact, healthy

**Wound Summary:**
A concise clinical note stating what can and cannot be determined from the available data.

**Tissue Percentages Over Time:**
Every Granulation, Slough, Eschar and Epithelialization value MUST be an integer percentage, and the four values for each day MUST add up to exactly 100%. Never use words such as "Minimal" or "None".
**Day 0:**
- Granulation: 60%
- Slough: 30%
- Eschar: 10%
- Epithelialization: 0%
**Day 7:**
- Granulation: 55%
- Slough: 25%
- Eschar: 15%
- Epithelialization: 5%
**Day 14:**
- Granulation: 50%
- Slough: 20%
- Eschar: 10%
- Epithelialization: 20%
**Day 21:**
- Granulation: 45%
- Slough: 15%
- Eschar: 5%
- Epithelialization: 35%

Describe only what is visible or stated. Do not invent data.`

const geminiExpandSystem = "You are an expert wound care specialist. Provide detailed, evidence-based expanded treatment plans as a single JSON object."

// Arguments: brief plan, wound location, health risk factors.
const geminiExpandPrompt = `Expand the brief treatment plan below into a comprehensive plan.
Return one JSON object with exactly these keys:
- "recommendations": a list of objects, each with "action" and "rationale"
- "ongoing_care": a string
- "patient_education": a string

Example:
{"recommendations":[{"action":"Irrigate the wound with sterile 0.9%% saline...","rationale":"Mechanical irrigation reduces surface bioburden while preserving viable tissue."}],"ongoing_care":"Change dressings every 48–72 hours or sooner if saturated...","patient_education":"Educate the patient and caregiver on signs of infection."}

Brief treatment plan:
%s

Clinical context:
- Wound Location: %s
- Health Risk Factors: %s`

const geminiReviseSystem = "You are an expert wound care specialist. Recommend appropriate wound care products based on clinical needs and practical constraints, answering with a single JSON object."

// Arguments: reason, instruction, current products.
const geminiRevisePrompt = `Revise the recommended products because of this constraint: "%s".
Instruction: %s

Current recommended products:
%s

Return one JSON object with the key "revised_products": a list of 2 to 3 objects, each with "product_name" and "rationale".
Example:
{"revised_products":[{"product_name":"Generic Sterile Saline (0.9%%)","rationale":"A cost-effective alternative for wound cleansing that is widely available."}]}`

var geminiRevisionInstructions = map[RevisionReason]string{
	ReasonPatientWontTolerate: "Focus on gentle, hypoallergenic products that are comfortable for sensitive patients.",
	ReasonTooCostly:           "Recommend cost-effective, generic alternatives and basic wound care supplies.",
	ReasonProductsUnavailable: "Suggest readily available alternatives that can be found in most pharmacies.",
	ReasonOther:               "Provide alternative product recommendations with different mechanisms of action.",
}

const geminiHealingRubric = `You are a world-class wound care specialist. The attached PDF contains the complete history of a single wound, one assessment per page, oldest first.
Provide a nuanced 'Healing Progress Percentage' for the LATEST image and data compared to the previous pages.

- 0% represents the initial state of the wound (the first image).
- 100% represents a fully healed state: a faint, pale, non-erythematous (not red) scar with fully restored skin integrity.
- A wound closed with sutures that still shows significant redness, swelling, or a prominent, fresh scar is intermediate (e.g., 60-80%), NOT 100%.
- A wound that is smaller but still open with granulation tissue might be around 50%.

Respond with only a single JSON object containing one key: "healing_progress_percentage", an integer.`
