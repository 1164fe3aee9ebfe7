package oracle

import (
	"strings"

	"github.com/nao1215/newscrawler/internal/model"
)

// discoveryPrompt asks for the article links on a homepage.
const discoveryPrompt = `You are a web page analysis assistant. Extract the URLs of all news articles from the given HTML.
Article links usually sit in news lists, article cards or similar containers.
Return only links to news articles. Do not include navigation, advertising or other links.
Return only JSON in the following format:
{
  "urls": ["url1", "url2", "url3"]
}`

const englishPrompt = `You are a news content filter and summarizer. Analyze the news article and decide whether it is about tax matters.

Only tax Legislation, taxation Policy, HKICPA or ACCA news is relevant.

For the article, provide:
1. A concise summary in English of at most 4 sentences, in an objective and neutral tone
2. One or more of the following categories as tags: Legislation, Policy, HKICPA, ACCA
3. The publish date in YYYY-MM-DD format if the HTML clearly states it, otherwise ""
4. Whether the article is relevant (true/false)

If the article is not about tax matters, set is_relevant to false.

Return ONLY valid JSON. Do not add any other text, explanation or markdown.

{
    "title": "Article title",
    "summary": "Concise English summary (max 4 sentences)",
    "tags": ["Legislation", "Policy", "HKICPA", "ACCA"],
    "publish_date": "",
    "is_relevant": true
}`

const traditionalChinesePrompt = `你是一個專業的新聞內容過濾和摘要助手。請分析新聞文章並判斷是否與稅務相關。

只有與稅務立法、稅務政策、香港會計師公會(HKICPA)或特許公認會計師公會(ACCA)相關的內容才算相關。

請提供：
1. 繁體中文的簡潔摘要，不超過4句話，語調客觀中性
2. 以下一個或多個類別作為標籤：立法、政策、HKICPA、ACCA
3. 發佈日期，格式為 YYYY-MM-DD（HTML中有明確信息則提取，否則留空 ""）
4. 文章是否相關（true/false）

如果文章與稅務事項無關，請將 is_relevant 設為 false。

重要：只返回有效的 JSON，不要包含任何額外文字、解釋或 markdown 格式。

{
    "title": "文章標題",
    "summary": "繁體中文簡潔摘要（最多4句話）",
    "tags": ["立法", "政策", "HKICPA", "ACCA"],
    "publish_date": "",
    "is_relevant": true
}`

const simplifiedChinesePrompt = `你是一个专业的新闻内容过滤和摘要助手。请分析新闻文章并判断是否与税务相关。

只有与税务立法、税务政策、香港会计师公会(HKICPA)或特许公认会计师公会(ACCA)相关的内容才算相关。

请提供：
1. 简体中文的简洁摘要，不超过4句话，语调客观中性
2. 以下一个或多个类别作为标签：立法、政策、HKICPA、ACCA
3. 发布日期，格式为 YYYY-MM-DD（HTML中有明确信息则提取，否则留空 ""）
4. 文章是否相关（true/false）

如果文章与税务事项无关，请将 is_relevant 设为 false。

重要：只返回有效的 JSON，不要包含任何额外文字、解释或 markdown 格式。

{
    "title": "文章标题",
    "summary": "简体中文简洁摘要（最多4句话）",
    "tags": ["立法", "政策", "HKICPA", "ACCA"],
    "publish_date": "",
    "is_relevant": true
}`

// DiscoveryPrompt returns the system instruction for URL discovery.
func DiscoveryPrompt() string {
	return discoveryPrompt
}

// ExtractionPrompt returns the system instruction for judging an article in
// the given language. Unknown languages get the simplified Chinese prompt.
func ExtractionPrompt(lang model.Language) string {
	switch lang {
	case model.LanguageEnglish:
		return englishPrompt
	case model.LanguageTraditionalChinese:
		return traditionalChinesePrompt
	default:
		return simplifiedChinesePrompt
	}
}

// FormatExtractionPrompt renders the extraction instruction and the page as
// a single prompt for raw completion.
func FormatExtractionPrompt(lang model.Language, page string) string {
	var b strings.Builder
	b.Grow(len(page) + 2048)
	b.WriteString("System: ")
	b.WriteString(ExtractionPrompt(lang))
	b.WriteString("\nHuman: ")
	b.WriteString(page)
	return b.String()
}

// truncate shortens s to at most limit runes. A non-positive limit disables it.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
