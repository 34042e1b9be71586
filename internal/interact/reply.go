package interact

import "strings"

// replyCategory couples topical trigger words with their canned
// responses.
type replyCategory struct {
	triggers []string
	replies  []string
}

// Categories and canned texts carried over from the original persona
// vocabulary; the forum audience is Chinese-speaking.
var replyCategories = []replyCategory{
	{
		triggers: []string{"code", "programming", "developer"},
		replies: []string{
			"作为开发者，这个观点很有启发性！",
			"代码层面的分析很到位，学到了",
			"感谢分享开发经验！",
		},
	},
	{
		triggers: []string{"learn", "study", "tutorial"},
		replies: []string{
			"很好的学习资源，收藏了！",
			"感谢分享学习心得",
			"这个教程对我帮助很大",
		},
	},
	{
		triggers: []string{"help", "question", "?"},
		replies: []string{
			"希望你能找到答案！",
			"加油，问题一定能解决",
			"有需要帮助的可以问我",
		},
	},
}

// genericReplies are always candidates, so a reply is possible for any
// input, including empty text.
var genericReplies = []string{
	"很有见地，感谢分享！",
	"学习到了，支持一下",
	"分析得很到位，赞！",
	"受益匪浅，继续加油",
	"说得对！",
	"很棒的内容，收藏了",
	"感谢楼主的分享",
	"支持！很有价值",
}

// GenerateReply picks a comment for the given item text. Matched
// topical categories contribute their canned pools on top of the
// generic pool, then one candidate is drawn uniformly. The result is
// never empty.
func GenerateReply(rnd Rand, text string) string {
	lower := strings.ToLower(text)

	var pool []string
	for _, cat := range replyCategories {
		for _, trigger := range cat.triggers {
			if strings.Contains(lower, trigger) {
				pool = append(pool, cat.replies...)
				break
			}
		}
	}
	pool = append(pool, genericReplies...)

	return pool[rnd.IntN(len(pool))]
}
