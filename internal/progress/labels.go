package progress

import "sceneforge/internal/i18n"

var labels = map[string]map[Stage]string{
	i18n.English: {
		StageQueued:             "Initializing job",
		StageLoadingScene:       "Loading scene configuration",
		StagePreparingPrompt:    "Preparing prompt",
		StageLoadingSourceImage: "Reading source image",
		StageCallingModel:       "Calling AI model",
		StageProcessingResult:   "Processing AI result",
		StageSavingImages:       "Saving generated images",
		StageCompleted:          "Completed",
		StageFailed:             "Failed",
	},
	i18n.Indonesian: {
		StageQueued:             "Menyiapkan tugas",
		StageLoadingScene:       "Memuat konfigurasi adegan",
		StagePreparingPrompt:    "Menyiapkan prompt",
		StageLoadingSourceImage: "Membaca gambar sumber",
		StageCallingModel:       "Memanggil model AI",
		StageProcessingResult:   "Memproses hasil AI",
		StageSavingImages:       "Menyimpan gambar hasil",
		StageCompleted:          "Selesai",
		StageFailed:             "Gagal",
	},
	i18n.Chinese: {
		StageQueued:             "初始化处理任务",
		StageLoadingScene:       "加载场景配置",
		StagePreparingPrompt:    "准备处理提示词",
		StageLoadingSourceImage: "读取源图片",
		StageCallingModel:       "调用AI模型处理",
		StageProcessingResult:   "处理AI生成结果",
		StageSavingImages:       "保存生成的图片",
		StageCompleted:          "处理完成",
		StageFailed:             "处理失败",
	},
}

// Label returns the localized step label. Unknown locales use English.
func Label(stage Stage, locale string) string {
	set := labels[i18n.Normalize(locale)]
	if l, ok := set[stage]; ok {
		return l
	}
	if l, ok := labels[i18n.English][stage]; ok {
		return l
	}
	return string(stage)
}
