package translate

import (
	"fmt"
	"strings"

	"novel-trans-api/internal/domain/entity"
)

// 翻译系统提示词，硬性规则：不得残留源语言、不得加开场白、保持术语一致
const systemPrompt = `BẠN LÀ CHUYÊN GIA BIÊN TẬP VÀ DỊCH THUẬT TIỂU THUYẾT CAO CẤP.
NHIỆM VỤ: Dịch nội dung được cung cấp sang %s mượt mà, văn phong tiểu thuyết.

QUY TẮC CỨNG:
1. TUYỆT ĐỐI KHÔNG TRẢ VỀ NGUYÊN VĂN NGÔN NGỮ GỐC. Mọi từ ngữ phải được dịch.
2. KHÔNG THÊM lời dẫn, lời chào, hay nhận xét cá nhân.
3. SỬ DỤNG TỪ ĐIỂN ĐỂ NHẤT QUÁN TÊN RIÊNG.
4. Loại bỏ hoàn toàn các dòng rác (link web, quảng cáo lậu) nếu chúng vô tình lọt vào nội dung gốc.
5. Khi được yêu cầu dịch tiêu đề, trả tiêu đề đã dịch ở dòng đầu tiên theo dạng [TIÊU ĐỀ] ...`

// titleMarker 第一块译文首行携带的标题标记
const titleMarker = "[TIÊU ĐỀ]"

const unknownValue = "Chưa rõ"

// SystemPrompt 渲染目标语言后的系统提示词
func SystemPrompt(targetLanguage string) string {
	if targetLanguage == "" {
		targetLanguage = "tiếng Việt"
	}
	return fmt.Sprintf(systemPrompt, targetLanguage)
}

// ReplaceVariables 替换用户提示词模板中的 {{...}} 变量，缺失的填 "Chưa rõ"
func ReplaceVariables(template string, project *entity.Project) string {
	if template == "" {
		return ""
	}
	info := project.Info
	if info == nil {
		info = &entity.ProjectInfo{}
	}
	val := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return unknownValue
		}
		return s
	}

	r := strings.NewReplacer(
		"{{TITLE}}", val(project.Title),
		"{{AUTHOR}}", val(project.Author),
		"{{LANGUAGE}}", val(project.TargetLanguage),
		"{{GENRE}}", val(info.Genre),
		"{{PERSONALITY}}", val(info.Personality),
		"{{SETTING}}", val(info.Setting),
		"{{FLOW}}", val(info.Flow),
	)
	return r.Replace(template)
}

// BuildChunkPrompt 组装单个分块的完整请求。
// 第一块附带标题翻译指令，后续块带 "part i/n" 续翻标记。
func BuildChunkPrompt(dictionary, globalContext, userPrompt, title, chunk string, index, total int) string {
	var b strings.Builder

	b.WriteString("[DICTIONARY]\n")
	b.WriteString(dictionary)
	b.WriteString("\n\n[STORY_CONTEXT]\n")
	b.WriteString(globalContext)
	b.WriteString("\n\n[USER_REQUIREMENTS]\n")
	b.WriteString(userPrompt)
	b.WriteString("\n\n")

	if total > 1 {
		fmt.Fprintf(&b, "[PART %d/%d]\n", index+1, total)
		if index > 0 {
			b.WriteString("Tiếp tục dịch phần sau của chương, giữ mạch văn liền với phần trước.\n")
		}
	}
	if index == 0 && title != "" {
		fmt.Fprintf(&b, "Dịch tiêu đề chương sau và trả về ở dòng đầu tiên theo dạng %s ...: %s\n", titleMarker, title)
	}

	b.WriteString("\n[CONTENT_TO_TRANSLATE]\n")
	b.WriteString(chunk)
	return b.String()
}

// ExtractTitle 从第一块译文中取出标题标记行，返回标题与剩余正文
func ExtractTitle(output string) (string, string) {
	lines := strings.Split(output, "\n")
	for i, l := range lines {
		line := strings.TrimSpace(l)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, titleMarker) {
			title := strings.TrimSpace(strings.TrimPrefix(line, titleMarker))
			rest := strings.Join(append(lines[:i:i], lines[i+1:]...), "\n")
			return title, strings.TrimSpace(rest)
		}
		break
	}
	return "", output
}
