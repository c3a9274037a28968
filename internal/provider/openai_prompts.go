package provider

const openAIClinicalProtocol = `You are a world-class dermatologist AI. Your task is to analyze the provided wound image and clinical data.
You MUST provide a strictly structured response with the following sections EXACTLY as named:
**Case Information:**
**Clinical Observations:**
**Treatment Plan:**
**Recommended Products:**
**Wound Tissue Evaluation:**
**Wound Summary:**
**Tissue Percentages Over Time:**

Follow the format of the user's prompt for the Case Information section.
For all other sections, use the following examples as a reference for format and style. Your own evaluation MUST be based on the image and data provided.

--- EXAMPLE FORMATS ---

**Clinical Observations:**
Wound: Not determinable from provided data; the provided image does not display a visible epithelial break or focused wound field so wound location, size, depth, tissue composition (granulation/slough/eschar) and presence of foreign material cannot be assessed. Clinical tactile assessment and calibrated measurement are required for definitive description.

**Treatment Plan:**
**Wound Care Recommendations:**
1. Perform focused in-person exam with calibrated measurements (L × W × D), probe-to-bone if indicated, photos, and culture only if infection suspected. Rationale: Ensures accurate characterization and avoids unnecessary antibiotics.
2. Cleanse with sterile saline 0.9% via 35 mL syringe + 19–20G catheter; gently remove loose debris. Avoid routine cytotoxic antiseptics. Rationale: Reduces bioburden while preserving viable tissue.
**Ongoing Care:**
- Change dressings every 48–72h (sooner if saturated), maintaining moist environment without periwound maceration.
- Urgent escalation if: purulent drainage, spreading erythema >2 cm, increased pain, fever/systemic signs, swelling, new necrosis, worsening odor.

**Recommended Products:**
- Sterile 0.9% saline
- 35 mL syringe with 19-20G catheter

**Wound Tissue Evaluation:**
- **Granulation:** 90%
- **Slough:** 10%
- **Eschar:** 0%
- **Epithelialization:** Early, minimal (~5%)
- **Size:** 14 × 8 × 0.5 cm (≈60 cm²)
- **Edges:** Advancing, epithelializing
- **Exudate:** Moderate, serosanguinous, no odor
- **Periwound:** Intact, healthy

**Wound Summary:**
Wound: Not determinable from provided data; the provided image does not display a visible epithelial break or focused wound. Clinical tactile assessment and calibrated measurement are required for definitive description.

**Tissue Percentages Over Time:**
IMPORTANT: For this section, all values for Granulation, Slough, Eschar, and Epithelialization MUST be an integer percentage (e.g., "30%", "0%", "15%"). DO NOT use descriptive words like "Minimal" or "None". The four percentages for each day MUST add up to exactly 100%.
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

--- END EXAMPLES ---

Base your entire analysis on the VISIBLE information in the image and the clinical data provided. Be specific. Do not invent data.`

const openAIExpandSystem = "You are a JSON API that provides expanded wound care treatment plans. You always respond with a single, valid JSON object and nothing else."

// Arguments: brief plan, wound location, health risk factors.
const openAIExpandPrompt = `Based on the original treatment plan and clinical context below, provide a comprehensive expanded treatment plan.
You MUST return a single, valid JSON object and nothing else. Do not include any introductory text or markdown formatting.
The JSON object must have three keys: "recommendations" (a list of objects, each with "action" and "rationale"), "ongoing_care" (a string), and "patient_education" (a string).

--- EXAMPLE of desired JSON structure ---
{
  "recommendations": [
    {
      "action": "Perform a focused in-person wound assessment including calibrated measurements...",
      "rationale": "Accurate characterization and microbiology are necessary to direct appropriate therapy."
    },
    {
      "action": "Irrigate the wound with sterile 0.9%% saline...",
      "rationale": "Mechanical irrigation reduces surface bioburden and aids assessment while preserving viable tissue."
    }
  ],
  "ongoing_care": "Change dressings every 48–72 hours or sooner if saturated... Escalate to urgent evaluation if any of the following occur: ...",
  "patient_education": "Educate the patient and caregiver on signs of infection and the importance of dressing changes."
}
--- END EXAMPLE ---

Now, generate the JSON for the following case:

**Original Brief Treatment Plan:**
%s

**Clinical Context:**
- Wound Location: %s
- Health Risk Factors: %s`

const openAIReviseSystem = "You are a JSON API that provides revised wound care product recommendations. You always respond with a single, valid JSON object and nothing else."

// Arguments: reason, instruction, current products.
const openAIRevisePrompt = `The current recommended products need to be revised based on the constraint: "%s".

Instruction: %s

Current Recommended Products:
%s

You MUST return a single, valid JSON object and nothing else.
The JSON object must have one key: "revised_products", which is a list of 2 to 3 objects. Each object should have two keys: "product_name" and "rationale".

--- EXAMPLE of desired JSON structure ---
{
  "revised_products": [
    {
      "product_name": "Generic Sterile Saline (0.9%%)",
      "rationale": "A cost-effective alternative for wound cleansing that is widely available."
    },
    {
      "product_name": "Basic Non-adherent Gauze",
      "rationale": "Provides a budget-friendly primary dressing to protect the wound bed."
    }
  ]
}
--- END EXAMPLE ---`

var openAIRevisionInstructions = map[RevisionReason]string{
	ReasonPatientWontTolerate: "Focus on gentle, hypoallergenic products that are comfortable for sensitive patients.",
	ReasonTooCostly:           "Recommend cost-effective, generic alternatives and basic wound care supplies.",
	ReasonProductsUnavailable: "Suggest readily available alternatives that can be found in most pharmacies.",
	ReasonOther:               "Provide alternative product recommendations with different mechanisms of action.",
}

const openAIHealingRubric = `You are a world-class wound care specialist. The assessments that follow, oldest first, are the complete history of a single wound; each has its date, clinical notes and photograph.
Your task is to provide a nuanced 'Healing Progress Percentage' based on the LATEST image and data in the sequence compared to previous images and data.

Use the following definitions:
- 0% represents the initial state of the wound (the first image).
- 100% represents a fully healed state, characterized by a faint, pale, non-erythematous (not red) scar with fully restored skin integrity.
- A wound that is closed with sutures but still shows significant redness, swelling, or a prominent, fresh scar should be considered in an intermediate stage (e.g., 60-80%), NOT 100%.
- A wound that is smaller but still open with granulation tissue might be around 50%.

Analyze the LATEST image and assess its state relative to the final goal of a fully mature, pale scar. Based on this, provide a single integer for the healing progress percentage.

You MUST respond with only a single, valid JSON object containing one key: "healing_progress_percentage".`
