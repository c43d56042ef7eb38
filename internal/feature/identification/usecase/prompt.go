package usecase

// IdentificationPrompt は自由記述型プロバイダー（Gemini・OpenAI）へ画像と一緒に送る指示文です。
// 応答は1行目が一般名、2行目が学名、3行目が説明になるよう求めます。
const IdentificationPrompt = "Identify this plant and provide its name, scientific name, and description:\n" +
	"Answer in exactly three lines with no labels or formatting: " +
	"line 1 the common name, line 2 the scientific name, line 3 a one-paragraph description."
