package utils

import (
	"encoding/hex"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/holdno/snowFlakeByGo"
)

var (
	idWorker     *snowFlakeByGo.Worker
	idWorkerOnce sync.Once
)

// SetupIDWorker 指定 snowflake 的 cluster id, 未调用时首次生成 id 使用 1
func SetupIDWorker(clusterID int64) {
	idWorkerOnce.Do(func() {
		idWorker, _ = snowFlakeByGo.NewWorker(clusterID)
	})
}

// GenUniqIDStr 用于迁移/导入的批次 id 等内部 id
func GenUniqIDStr() string {
	SetupIDWorker(1)
	return strconv.FormatInt(idWorker.GetId(), 10)
}

const (
	ID_PATTERN           = "pa_xxxx-xxxx-xxx-xxxx"
	KNOWLEDGE_ID_PATTERN = "pa_knowledge_xxxx-xxxx-xxx-xxxx"
	DOCUMENT_ID_PATTERN  = "pa_document_xxxx-xxxx-xxx-xxxx"
	OPENAI_ID_PATTERN    = "openai-xxxx-xxx-xxxx"
	MODEL_ID_PATTERN     = "model-xxxx-xxxx-xxx-xxxx"
	USER_ID_PATTERN      = "user_xxxx-xxxx-xxx-xxxx-xxxx"
)

// GenPatternID 将 pattern 中的 x 替换为随机十六进制字符
func GenPatternID(pattern string) string {
	var (
		sb   strings.Builder
		hexs = randomHex(strings.Count(pattern, "x"))
		i    int
	)
	sb.Grow(len(pattern))
	for _, c := range pattern {
		if c == 'x' {
			sb.WriteByte(hexs[i])
			i++
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

func randomHex(n int) string {
	var sb strings.Builder
	for sb.Len() < n {
		id := uuid.New()
		sb.WriteString(hex.EncodeToString(id[:]))
	}
	return sb.String()[:n]
}

func GenID() string {
	return GenPatternID(ID_PATTERN)
}

func GenKnowledgeID() string {
	return GenPatternID(KNOWLEDGE_ID_PATTERN)
}

func GenDocumentID() string {
	return GenPatternID(DOCUMENT_ID_PATTERN)
}

func GenOpenAIID() string {
	return GenPatternID(OPENAI_ID_PATTERN)
}

func GenModelID() string {
	return GenPatternID(MODEL_ID_PATTERN)
}

func GenUserID() string {
	return GenPatternID(USER_ID_PATTERN)
}
