// internal/analysis/prompt.go
package analysis

const nutritionPrompt = `Analyze this photo of food and return ONLY a valid JSON object with the following nutrition information:

{
  "foodName": "name of the identified food",
  "calories": estimated_calories_as_a_number,
  "macros": {
    "protein": grams_of_protein,
    "carbs": grams_of_carbohydrates,
    "fat": grams_of_fat
  },
  "sugar": grams_of_sugar,
  "vitamins": ["list", "of", "main", "vitamins"],
  "confidence": confidence_percentage_of_the_analysis
}

Base the estimates on the apparent portion size. Return ONLY the JSON, with no additional text.`
