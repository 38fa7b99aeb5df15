package generative

import "fmt"

const geometrySystemPrompt = "You are a JSON-only API. Output only valid JSON data."

const geometryPromptTemplate = `You are an advanced 3D reconstruction engine. Analyze the provided image and reconstruct it using a HIGH-DENSITY composition of geometric primitives.
%s
Output strictly valid JSON (no markdown block) with a root object containing a "primitives" key.

IMPORTANT: Generate 50-100 primitives for EXTREME DETAIL. Use a variety of shapes to capture fine details.

Available Shapes:
- box: For flat surfaces, panels, rectangular components
- cylinder: For legs, arms, tubes, cylindrical parts
- sphere: For rounded endpoints, knobs, spherical elements
- cone: For tapered elements, decorative tips, pointed components
- capsule: For rounded cylinders (pill-shaped), smooth transitions
- torus: For rings, circular trim, rounded edges (specify radius & tube)

Structure:
{
  "primitives": [
    {
      "type": "box" | "sphere" | "cylinder" | "cone" | "capsule" | "torus",
      "position": [x, y, z], // Coordinates between -5 and 5
      "scale": [w, h, d],    // Sizes between 0.05 and 5
      "rotation": [x, y, z], // Radians
      "color": "#hexcode",   // Sample exact colors from image
      "radius": 0.5,         // Optional: for torus inner radius
      "tube": 0.1            // Optional: for torus tube thickness
    }
  ]
}

CRITICAL GUIDELINES:
1. Use 50-100 primitives minimum for rich detail
2. Vary primitive sizes (large structural + small detail elements)
3. Sample colors precisely from the image (use multiple shades)
4. Layer primitives for depth and realism
5. Use appropriate shapes (cones for tapered parts, capsules for smooth rounded shapes, etc.)
6. Add small decorative/detail primitives (screws, joints, textures)

Focus on creating a recognizable, detailed 3D representation.`

// geometryPrompt renders the reconstruction prompt, embedding the structural
// description from the vision step when there is one.
func geometryPrompt(description string) string {
	context := ""
	if description != "" {
		context = fmt.Sprintf("\nCONTEXT FROM VISUAL ANALYSIS:\n%q\n\nUse this context to guide your reconstruction.\n", description)
	}
	return fmt.Sprintf(geometryPromptTemplate, context)
}

const structurePrompt = `Analyze this product image for 3D reconstruction.
Describe the physical structure in detail, breaking it down into simple geometric shapes (cylinders, boxes, spheres).
Mention relative positions, colors, and proportions.
Example: "A chair with 4 thin cylindrical legs, a square thick seat cushion, and a curved rectangular backrest."

Be precise and technical.`

const variantPromptTemplate = `You are a Creative Director.
I need a DALL-E 3 prompt to generate a new product variant.
Original Product: See image.
User Request: %q

Output ONLY the detailed prompt text describing the new variant, maintaining the original angle and composition.`

func variantPrompt(request string) string {
	return fmt.Sprintf(variantPromptTemplate, request)
}
