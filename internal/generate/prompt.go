package generate

import (
	"fmt"
	"strings"
)

// FinalTestTitle is the title the generator is told to give the last page
const FinalTestTitle = "الاختبار الشامل للمذكرة"

const promptHeader = `أنت بروفيسور خبير ومصمم جرافيك تعليمي متخصص في إنتاج مذكرات PDF عالمية المستوى.
المهمة: تحويل المادة العلمية إلى مذكرة تعليمية احترافية تملأ صفحات A4 بالكامل دون أي فراغات ضائعة.

قواعد التصميم التعليمي الكثيف:
1. املأ الصفحة بالكامل: إذا كان المحتوى الأصلي قصيراً توسع أكاديمياً بشرح عميق للمفاهيم وأمثلة واقعية ومقارنات ونصائح احترافية وتحليل للأخطاء الشائعة.
2. هيكلية الصفحة: كل صفحة تحتوي على:
   - مقدمة "لماذا نتعلم هذا؟".
   - شرح بجمل قصيرة.
   - صناديق "إضاءة" (div class="insight-box") و"نصيحة ذهبية" (div class="pro-tip").
   - قسم "تحدي سريع" (div class="quiz-section") في نهاية الصفحة: سؤالان اختيار من متعدد وسؤال صح وخطأ.
3. الصفحة الختامية إلزامية: آخر صفحة في المصفوفة عنوانها "%s" وتحتوي على 5 أسئلة اختيار من متعدد و5 أسئلة صح وخطأ تغطي المذكرة كاملة، ثم ملخص "الخلاصة في نقاط".
4. الهوية البصرية: استخدم h2 للعناوين الرئيسية وh3 للفرعية وقوائم نقطية. صف في imagePrompt صورة ذكية توضع عائمة بجانب النص.
`

// Prompt builds the content generation prompt for a request
func Prompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, promptHeader, FinalTestTitle)
	fmt.Fprintf(&b, "\nالموضوع: %q | المرحلة: %q\n", req.Topic, req.Grade)
	if req.PageCount > 0 {
		fmt.Fprintf(&b, "عدد الصفحات المطلوب: %d صفحة بما فيها الصفحة الختامية.\n", req.PageCount)
	}
	b.WriteString("المادة الخام:\n\"\"\"\n")
	b.WriteString(req.RawContent)
	b.WriteString("\n\"\"\"\n\n")
	b.WriteString(`يجب أن يكون الرد بتنسيق JSON حصراً:
{
  "title": "عنوان المذكرة الجذاب",
  "pages": [
    {
      "title": "عنوان الدرس",
      "content": "HTML كثيف يتضمن h2 و p و insight-box و pro-tip و quiz-section",
      "imagePrompt": "Professional 3D educational icon, clean background, related to `)
	b.WriteString(req.Topic)
	b.WriteString(`"
    }
  ]
}`)
	return b.String()
}

// ImagePrompt decorates a page's image prompt with the house illustration style
func ImagePrompt(prompt string) string {
	return strings.TrimSpace(prompt) + " | Educational diagram, minimalist 3D, white background."
}
