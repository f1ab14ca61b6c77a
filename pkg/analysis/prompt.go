package analysis

// Prompt is the instruction sent alongside every image.
const Prompt = `Analyze this image captured from a video and provide:

1. A detailed scene description (2-3 sentences describing what's happening)
2. A list of all objects you can identify in the image
3. Your confidence level (0-100) in the analysis

Please format your response as JSON with the following structure:
{
  "sceneDescription": "detailed description of the scene",
  "objects": ["object1", "object2", "object3", ...],
  "confidence": 85
}

Be specific and accurate in your analysis. Focus on visible objects and clear scene elements.`
